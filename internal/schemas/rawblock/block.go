// Package rawblock provides the concrete RawBlock shared by all schema
// adapters and the JSON helpers they use to read loosely typed layout files.
package rawblock

import (
	"strings"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// Ensure Block implements the interface.
var _ domain.RawBlock = (*Block)(nil)

// Grid is the side length of the page grid bounding boxes are scaled to.
const Grid = 1000.0

// Block is the concrete RawBlock produced by every adapter.
type Block struct {
	Kind    domain.BlockType
	Body    string
	Box     domain.BBox
	Page    int
	Index   int
	Payload domain.Content
	Meta    map[string]any
	Raw     map[string]any
}

// Type returns the adapter-assigned type.
func (b *Block) Type() domain.BlockType { return b.Kind }

// Text returns the plain text payload.
func (b *Block) Text() string { return b.Body }

// BBox returns the box on the page grid.
func (b *Block) BBox() domain.BBox { return b.Box }

// PageIndex returns the 0-based page index.
func (b *Block) PageIndex() int { return b.Page }

// Order returns the position within the page.
func (b *Block) Order() int { return b.Index }

// Content returns a copy of the element payload.
// Text-bearing blocks always carry a "text" entry.
func (b *Block) Content() domain.Content {
	c := b.Payload.Clone()
	if c == nil {
		c = domain.Content{}
	}
	if _, ok := c[domain.ContentText]; !ok && b.Body != "" {
		c.SetText(b.Body)
	}
	return c
}

// Metadata returns auxiliary values.
func (b *Block) Metadata() map[string]any { return b.Meta }

// RawPayload returns the undecoded source object.
func (b *Block) RawPayload() map[string]any { return b.Raw }

// Str returns m[key] as a string, or "".
func Str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Num returns m[key] as a float64.
func Num(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns m[key] as an int.
func Int(m map[string]any, key string) (int, bool) {
	f, ok := Num(m, key)
	return int(f), ok
}

// Obj returns m[key] as an object.
func Obj(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}

// List returns m[key] as a list.
func List(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

// Floats converts a JSON array of numbers. ok is false if any entry is
// not a number.
func Floats(v any) ([]float64, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(arr))
	for _, x := range arr {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// ScaleBox maps [x1, y1, x2, y2] onto the page grid.
// Boxes already normalised to [0,1] are multiplied by Grid. Otherwise,
// when the page size is known, coordinates are scaled by Grid/size;
// with no page size the values are taken as grid coordinates.
func ScaleBox(coords []float64, width, height float64) domain.BBox {
	if len(coords) < 4 {
		return domain.BBox{}
	}
	x1, y1, x2, y2 := coords[0], coords[1], coords[2], coords[3]

	normalised := true
	for _, c := range coords[:4] {
		if c < 0 || c > 1 {
			normalised = false
			break
		}
	}

	switch {
	case normalised:
		return domain.BBox{X1: x1 * Grid, Y1: y1 * Grid, X2: x2 * Grid, Y2: y2 * Grid}
	case width > 0 && height > 0:
		return domain.BBox{X1: x1 * Grid / width, Y1: y1 * Grid / height, X2: x2 * Grid / width, Y2: y2 * Grid / height}
	default:
		return domain.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	}
}

// PolyBox converts an 8-value polygon [x1,y1,x2,y2,x3,y3,x4,y4] to its
// bounding rectangle before scaling.
func PolyBox(poly []float64, width, height float64) domain.BBox {
	if len(poly) < 8 {
		return ScaleBox(poly, width, height)
	}
	minX, minY, maxX, maxY := poly[0], poly[1], poly[0], poly[1]
	for i := 0; i+1 < len(poly); i += 2 {
		minX = min(minX, poly[i])
		maxX = max(maxX, poly[i])
		minY = min(minY, poly[i+1])
		maxY = max(maxY, poly[i+1])
	}
	return ScaleBox([]float64{minX, minY, maxX, maxY}, width, height)
}

// Runs concatenates a list of inline runs such as
// [{"type":"text","content":"a"},{"type":"equation_inline","content":"x"}].
// Inline equations are wrapped in $...$.
func Runs(v any) string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	}
	var b strings.Builder
	for _, it := range items {
		switch run := it.(type) {
		case map[string]any:
			content := Str(run, "content")
			if Str(run, "type") == "equation_inline" {
				b.WriteString("$" + content + "$")
			} else {
				b.WriteString(content)
			}
		case string:
			b.WriteString(run)
		}
	}
	return b.String()
}

// Captions flattens caption lists made of strings or inline runs.
// Empty entries are dropped; nil is returned when nothing remains.
func Captions(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, it := range items {
		var text string
		switch c := it.(type) {
		case string:
			text = c
		case map[string]any:
			text = Str(c, "content")
		case []any:
			text = Runs(c)
		}
		if strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out
}

// Mismatch builds a SchemaMismatchError.
func Mismatch(schema, reason string, err error) error {
	return &domain.SchemaMismatchError{Schema: schema, Reason: reason, Err: err}
}
