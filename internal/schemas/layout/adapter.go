// Package layout adapts layout.json, the parser's intermediate page dump:
// {"pdf_info": [{"page_idx", "page_size", "para_blocks": [...]}]}.
// Coordinates are in PDF points and are scaled by the page size.
package layout

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/schemas/rawblock"
)

// Ensure Adapter implements the interface.
var _ driven.SchemaAdapter = (*Adapter)(nil)

// SchemaName is recorded on element provenance.
const SchemaName = "layout"

var typeMapping = map[string]domain.BlockType{
	"text":               domain.BlockParagraph,
	"list":               domain.BlockParagraph,
	"index":              domain.BlockParagraph,
	"title":              domain.BlockTitle,
	"table":              domain.BlockTable,
	"image":              domain.BlockImage,
	"code":               domain.BlockCode,
	"interline_equation": domain.BlockEquation,
}

// Adapter reads layout.json and other pdf_info dumps.
type Adapter struct{}

// New creates a new layout adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the schema name.
func (a *Adapter) Name() string {
	return SchemaName
}

// Priority returns the fusion priority.
func (a *Adapter) Priority() int {
	return 60
}

// Matches reports whether the file is a layout.json or *_middle.json.
func (a *Adapter) Matches(filename string) bool {
	base := filepath.Base(filename)
	return base == "layout.json" || strings.HasSuffix(base, "_middle.json")
}

// Parse adapts the file content.
func (a *Adapter) Parse(data []byte) (*domain.SourceBlocks, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, rawblock.Mismatch(SchemaName, "expected an object", err)
	}
	pdfInfo, ok := doc["pdf_info"].([]any)
	if !ok {
		return nil, rawblock.Mismatch(SchemaName, "missing pdf_info list", nil)
	}

	out := &domain.SourceBlocks{
		Schema:    SchemaName,
		Priority:  a.Priority(),
		PageCount: len(pdfInfo),
	}

	for i, p := range pdfInfo {
		page, ok := p.(map[string]any)
		if !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("page %d is not an object", i), nil)
		}
		pageIdx := i
		if idx, ok := rawblock.Int(page, "page_idx"); ok {
			pageIdx = idx
		}
		var width, height float64
		if size, ok := rawblock.Floats(page["page_size"]); ok && len(size) >= 2 {
			width, height = size[0], size[1]
		}

		for order, pb := range rawblock.List(page, "para_blocks") {
			raw, ok := pb.(map[string]any)
			if !ok {
				continue
			}
			out.Blocks = append(out.Blocks, buildBlock(raw, pageIdx, order, width, height))
		}
	}

	return out, nil
}

func buildBlock(raw map[string]any, page, order int, width, height float64) *rawblock.Block {
	rawType := rawblock.Str(raw, "type")
	kind, ok := typeMapping[rawType]
	if !ok {
		kind = domain.BlockUnknown
	}

	coords, _ := rawblock.Floats(raw["bbox"])
	b := &rawblock.Block{
		Kind:    kind,
		Box:     rawblock.ScaleBox(coords, width, height),
		Page:    page,
		Index:   order,
		Payload: domain.Content{},
		Meta:    map[string]any{"source_type": rawType},
		Raw:     raw,
	}

	switch kind {
	case domain.BlockTable, domain.BlockImage:
		var captions []string
		for _, sb := range rawblock.List(raw, "blocks") {
			sub, ok := sb.(map[string]any)
			if !ok {
				continue
			}
			subType := rawblock.Str(sub, "type")
			if strings.HasSuffix(subType, "_caption") {
				if text := linesText(sub); text != "" {
					captions = append(captions, text)
				}
			}
			collectSpanAssets(sub, b)
		}
		b.Payload[domain.ContentCaptions] = captions
	case domain.BlockTitle:
		b.Body = linesText(raw)
		level := 1
		if l, ok := rawblock.Int(raw, "level"); ok && l > 0 {
			level = l
		}
		b.Payload[domain.ContentLevel] = level
	case domain.BlockEquation:
		b.Body = linesText(raw)
		if b.Body != "" && !strings.HasPrefix(b.Body, "$$") {
			b.Body = "$$ " + b.Body + " $$"
		}
		b.Payload[domain.ContentFormat] = "latex"
	default:
		b.Body = linesText(raw)
		if kind == domain.BlockParagraph && b.Body == "" {
			// list/index blocks nest their lines in sub-blocks
			var parts []string
			for _, sb := range rawblock.List(raw, "blocks") {
				if sub, ok := sb.(map[string]any); ok {
					if text := linesText(sub); text != "" {
						parts = append(parts, text)
					}
				}
			}
			b.Body = strings.Join(parts, "\n")
		}
	}

	if score, ok := rawblock.Num(raw, "score"); ok {
		b.Meta["confidence"] = score
	}

	return b
}

// linesText joins span contents line by line.
func linesText(block map[string]any) string {
	var lines []string
	for _, l := range rawblock.List(block, "lines") {
		line, ok := l.(map[string]any)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, s := range rawblock.List(line, "spans") {
			span, ok := s.(map[string]any)
			if !ok {
				continue
			}
			content := rawblock.Str(span, "content")
			if rawblock.Str(span, "type") == "inline_equation" {
				content = "$" + content + "$"
			}
			sb.WriteString(content)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// collectSpanAssets copies image paths and table HTML found in spans.
func collectSpanAssets(block map[string]any, b *rawblock.Block) {
	for _, l := range rawblock.List(block, "lines") {
		line, ok := l.(map[string]any)
		if !ok {
			continue
		}
		for _, s := range rawblock.List(line, "spans") {
			span, ok := s.(map[string]any)
			if !ok {
				continue
			}
			if path := rawblock.Str(span, "image_path"); path != "" {
				if _, seen := b.Meta["image_path"]; !seen {
					b.Meta["image_path"] = path
				}
			}
			if html := rawblock.Str(span, "html"); html != "" {
				b.Payload[domain.ContentHTML] = html
			}
		}
	}
}
