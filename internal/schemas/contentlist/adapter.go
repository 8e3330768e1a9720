// Package contentlist adapts {uuid}_content_list.json, the flat block list
// with page_idx on every entry. It carries image paths the richer
// per-page list lacks.
package contentlist

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
const SchemaName = "content_list"

var typeMapping = map[string]domain.BlockType{
	"text":        domain.BlockParagraph,
	"paragraph":   domain.BlockParagraph,
	"list":        domain.BlockParagraph,
	"title":       domain.BlockTitle,
	"table":       domain.BlockTable,
	"image":       domain.BlockImage,
	"figure":      domain.BlockImage,
	"code":        domain.BlockCode,
	"equation":    domain.BlockEquation,
	"header":      domain.BlockPageHeader,
	"page_header": domain.BlockPageHeader,
	"page_footer": domain.BlockPageFooter,
	"page_number": domain.BlockPageNumber,
}

// Adapter reads the flat content list.
type Adapter struct{}

// New creates a new content_list adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the schema name.
func (a *Adapter) Name() string {
	return SchemaName
}

// Priority returns the fusion priority.
func (a *Adapter) Priority() int {
	return 80
}

// Matches reports whether the file is a {uuid}_content_list.json.
func (a *Adapter) Matches(filename string) bool {
	return strings.HasSuffix(filepath.Base(filename), "_content_list.json")
}

// Parse adapts the file content.
func (a *Adapter) Parse(data []byte) (*domain.SourceBlocks, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, rawblock.Mismatch(SchemaName, "expected a list of blocks", err)
	}

	out := &domain.SourceBlocks{
		Schema:   SchemaName,
		Priority: a.Priority(),
	}

	perPage := make(map[int]int)
	maxPage := -1
	for i, it := range items {
		raw, ok := it.(map[string]any)
		if !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("entry %d is not an object", i), nil)
		}
		if _, ok := raw["type"].(string); !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("entry %d has no type", i), nil)
		}

		page, _ := rawblock.Int(raw, "page_idx")
		order := perPage[page]
		perPage[page]++
		maxPage = max(maxPage, page)

		out.Blocks = append(out.Blocks, buildBlock(raw, page, order))
	}
	out.PageCount = maxPage + 1

	return out, nil
}

func buildBlock(raw map[string]any, page, order int) *rawblock.Block {
	rawType := rawblock.Str(raw, "type")
	kind, ok := typeMapping[rawType]
	if !ok {
		kind = domain.BlockUnknown
	}

	// Titles are text entries with a heading level.
	level, hasLevel := rawblock.Int(raw, "text_level")
	if kind == domain.BlockParagraph && rawType == "text" && hasLevel && level > 0 {
		kind = domain.BlockTitle
	}

	coords, _ := rawblock.Floats(raw["bbox"])
	b := &rawblock.Block{
		Kind:    kind,
		Body:    rawblock.Str(raw, "text"),
		Box:     rawblock.ScaleBox(coords, 0, 0),
		Page:    page,
		Index:   order,
		Payload: domain.Content{},
		Meta:    map[string]any{"source_type": rawType},
		Raw:     raw,
	}

	if path := rawblock.Str(raw, "img_path"); path != "" {
		b.Meta["image_path"] = path
	}

	switch kind {
	case domain.BlockTitle:
		if level < 1 {
			level = 1
		}
		b.Payload[domain.ContentLevel] = level
		b.Meta["level"] = level
	case domain.BlockParagraph:
		if rawType == "list" {
			if items := rawblock.Captions(raw["list_items"]); items != nil {
				b.Body = strings.Join(items, "\n")
			}
		}
	case domain.BlockTable:
		b.Payload[domain.ContentHTML] = rawblock.Str(raw, "table_body")
		b.Payload[domain.ContentCaptions] = rawblock.Captions(raw["table_caption"])
		if fn := rawblock.Captions(raw["table_footnote"]); fn != nil {
			b.Payload[domain.ContentFootnotes] = fn
		}
	case domain.BlockImage:
		b.Payload[domain.ContentCaptions] = rawblock.Captions(raw["image_caption"])
		if fn := rawblock.Captions(raw["image_footnote"]); fn != nil {
			b.Payload[domain.ContentFootnotes] = fn
		}
	case domain.BlockCode:
		if body := rawblock.Str(raw, "code_body"); body != "" {
			b.Body = body
		} else if code := rawblock.Str(raw, "code"); code != "" {
			b.Body = code
		}
		lang := rawblock.Str(raw, "code_language")
		b.Payload[domain.ContentLanguage] = lang
		b.Meta["code_language"] = lang
	case domain.BlockEquation:
		format := rawblock.Str(raw, "text_format")
		if format == "" {
			format = "latex"
		}
		b.Payload[domain.ContentFormat] = format
	}

	return b
}
