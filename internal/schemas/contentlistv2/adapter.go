// Package contentlistv2 adapts content_list_v2.json, the post-processed
// per-page block list. It is the richest source and wins fusion.
package contentlistv2

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/schemas/rawblock"
)

// Ensure Adapter implements the interface.
var _ driven.SchemaAdapter = (*Adapter)(nil)

// SchemaName is recorded on element provenance.
const SchemaName = "content_list_v2"

var typeMapping = map[string]domain.BlockType{
	"text":               domain.BlockParagraph,
	"paragraph":          domain.BlockParagraph,
	"list":               domain.BlockParagraph,
	"title":              domain.BlockTitle,
	"table":              domain.BlockTable,
	"image":              domain.BlockImage,
	"figure":             domain.BlockImage,
	"code":               domain.BlockCode,
	"algorithm":          domain.BlockCode,
	"equation":           domain.BlockEquation,
	"equation_interline": domain.BlockEquation,
	"interline_equation": domain.BlockEquation,
	"header":             domain.BlockPageHeader,
	"page_header":        domain.BlockPageHeader,
	"page_footer":        domain.BlockPageFooter,
	"page_number":        domain.BlockPageNumber,
}

// Adapter reads content_list_v2.json: a list of pages, each a list of
// {type, content, bbox} blocks.
type Adapter struct{}

// New creates a new content_list_v2 adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the schema name.
func (a *Adapter) Name() string {
	return SchemaName
}

// Priority returns the fusion priority.
func (a *Adapter) Priority() int {
	return 100 // Post-processed, most complete
}

// Matches reports whether the file is a content_list_v2.json.
func (a *Adapter) Matches(filename string) bool {
	return strings.HasSuffix(filepath.Base(filename), "content_list_v2.json")
}

// Parse adapts the file content.
func (a *Adapter) Parse(data []byte) (*domain.SourceBlocks, error) {
	var pages []any
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, rawblock.Mismatch(SchemaName, "expected a list of pages", err)
	}

	out := &domain.SourceBlocks{
		Schema:    SchemaName,
		Priority:  a.Priority(),
		PageCount: len(pages),
	}

	for pageIdx, p := range pages {
		page, ok := p.([]any)
		if !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("page %d is not a list", pageIdx), nil)
		}
		for order, item := range page {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out.Blocks = append(out.Blocks, buildBlock(raw, pageIdx, order))
		}
	}

	return out, nil
}

func buildBlock(raw map[string]any, page, order int) *rawblock.Block {
	rawType := rawblock.Str(raw, "type")
	kind, ok := typeMapping[rawType]
	if !ok {
		kind = domain.BlockUnknown
	}

	coords, _ := rawblock.Floats(raw["bbox"])
	b := &rawblock.Block{
		Kind:    kind,
		Box:     rawblock.ScaleBox(coords, 0, 0),
		Page:    page,
		Index:   order,
		Payload: domain.Content{},
		Meta:    map[string]any{"source_type": rawType},
		Raw:     raw,
	}

	content := rawblock.Obj(raw, "content")
	if content == nil {
		// Some writers put the text at the top level.
		b.Body = rawblock.Str(raw, "text")
		return b
	}

	switch kind {
	case domain.BlockParagraph:
		if rawType == "list" {
			b.Body = listText(content)
		} else {
			b.Body = rawblock.Runs(content["paragraph_content"])
		}
	case domain.BlockTitle:
		b.Body = rawblock.Runs(content["title_content"])
		level := 1
		if l, ok := rawblock.Int(content, "level"); ok {
			level = l
		}
		b.Payload[domain.ContentLevel] = level
		b.Meta["level"] = level
	case domain.BlockTable:
		html := rawblock.Str(content, "html")
		if html == "" {
			html = rawblock.Str(content, "table_body")
		}
		b.Payload[domain.ContentHTML] = html
		b.Payload[domain.ContentCaptions] = rawblock.Captions(content["table_caption"])
		if fn := rawblock.Captions(content["table_footnote"]); fn != nil {
			b.Payload[domain.ContentFootnotes] = fn
		}
		tableType := rawblock.Str(content, "table_type")
		if tableType == "" {
			tableType = "simple_table"
		}
		b.Meta["table_type"] = tableType
		if path := imagePath(content); path != "" {
			b.Meta["image_path"] = path
		}
	case domain.BlockImage:
		b.Payload[domain.ContentCaptions] = rawblock.Captions(content["image_caption"])
		if fn := rawblock.Captions(content["image_footnote"]); fn != nil {
			b.Payload[domain.ContentFootnotes] = fn
		}
		if path := imagePath(content); path != "" {
			b.Meta["image_path"] = path
		}
	case domain.BlockCode:
		b.Body = rawblock.Runs(content["code_content"])
		lang := rawblock.Str(content, "code_language")
		b.Payload[domain.ContentLanguage] = lang
		b.Meta["code_language"] = lang
	case domain.BlockEquation:
		if math := rawblock.Str(content, "math_content"); math != "" {
			b.Body = "$$ " + math + " $$"
		}
		format := rawblock.Str(content, "math_type")
		if format == "" {
			format = "latex"
		}
		b.Payload[domain.ContentFormat] = format
	case domain.BlockPageHeader, domain.BlockPageFooter, domain.BlockPageNumber:
		for _, key := range []string{"page_header_content", "page_footer_content", "page_number_content"} {
			if v, ok := content[key]; ok {
				b.Body = rawblock.Runs(v)
				break
			}
		}
	default:
		b.Body = firstText(content)
	}

	return b
}

func listText(content map[string]any) string {
	var lines []string
	for _, it := range rawblock.List(content, "list_items") {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if line := rawblock.Runs(item["item_content"]); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func imagePath(content map[string]any) string {
	if src := rawblock.Obj(content, "image_source"); src != nil {
		return rawblock.Str(src, "path")
	}
	return rawblock.Str(content, "img_path")
}

// firstText recovers text from an unrecognised block by taking the first
// *_content entry that renders to a non-empty string.
func firstText(content map[string]any) string {
	keys := make([]string, 0, len(content))
	for k := range content {
		if strings.HasSuffix(k, "_content") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := rawblock.Runs(content[k]); s != "" {
			return s
		}
	}
	return ""
}
