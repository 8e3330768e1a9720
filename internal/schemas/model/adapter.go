// Package model adapts {uuid}_model.json, the raw layout-model detections.
// It carries no reading order beyond detection order and little text,
// so it ranks lowest and mostly contributes confidence scores.
package model

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
const SchemaName = "model"

// categories maps layout-model category ids to block types.
// Captions, footnotes and inline formulas are absorbed by their parent
// blocks in richer sources and are not surfaced.
var categories = map[int]domain.BlockType{
	0:  domain.BlockTitle,
	1:  domain.BlockParagraph,
	2:  domain.BlockPageFooter, // abandon: headers, footers, page numbers
	3:  domain.BlockImage,
	5:  domain.BlockTable,
	8:  domain.BlockEquation,
	14: domain.BlockEquation,
	15: domain.BlockParagraph,
}

var skipped = map[int]bool{
	4:  true, // figure caption
	6:  true, // table caption
	7:  true, // table footnote
	9:  true, // formula caption
	13: true, // inline formula
}

// Adapter reads the model detection dump.
type Adapter struct{}

// New creates a new model adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the schema name.
func (a *Adapter) Name() string {
	return SchemaName
}

// Priority returns the fusion priority.
func (a *Adapter) Priority() int {
	return 40
}

// Matches reports whether the file is a {uuid}_model.json.
func (a *Adapter) Matches(filename string) bool {
	return strings.HasSuffix(filepath.Base(filename), "_model.json")
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

	for i, p := range pages {
		page, ok := p.(map[string]any)
		if !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("page %d is not an object", i), nil)
		}
		dets, ok := page["layout_dets"].([]any)
		if !ok {
			return nil, rawblock.Mismatch(SchemaName, fmt.Sprintf("page %d has no layout_dets", i), nil)
		}

		info := rawblock.Obj(page, "page_info")
		pageIdx := i
		if n, ok := rawblock.Int(info, "page_no"); ok {
			pageIdx = n
		}
		width, _ := rawblock.Num(info, "width")
		height, _ := rawblock.Num(info, "height")

		order := 0
		for _, d := range dets {
			det, ok := d.(map[string]any)
			if !ok {
				continue
			}
			cat, ok := rawblock.Int(det, "category_id")
			if !ok || skipped[cat] {
				continue
			}
			out.Blocks = append(out.Blocks, buildBlock(det, cat, pageIdx, order, width, height))
			order++
		}
	}

	return out, nil
}

func buildBlock(raw map[string]any, cat, page, order int, width, height float64) *rawblock.Block {
	kind, ok := categories[cat]
	if !ok {
		kind = domain.BlockUnknown
	}

	var box domain.BBox
	if poly, ok := rawblock.Floats(raw["poly"]); ok {
		box = rawblock.PolyBox(poly, width, height)
	} else if coords, ok := rawblock.Floats(raw["bbox"]); ok {
		box = rawblock.ScaleBox(coords, width, height)
	}

	b := &rawblock.Block{
		Kind:    kind,
		Body:    rawblock.Str(raw, "text"),
		Box:     box,
		Page:    page,
		Index:   order,
		Payload: domain.Content{},
		Meta:    map[string]any{"category_id": cat},
		Raw:     raw,
	}

	if score, ok := rawblock.Num(raw, "score"); ok {
		b.Meta["confidence"] = score
	}

	switch kind {
	case domain.BlockEquation:
		if latex := rawblock.Str(raw, "latex"); latex != "" {
			b.Body = "$$ " + latex + " $$"
		}
		b.Payload[domain.ContentFormat] = "latex"
	case domain.BlockTable:
		b.Payload[domain.ContentHTML] = rawblock.Str(raw, "html")
	case domain.BlockTitle:
		b.Payload[domain.ContentLevel] = 1
	}

	return b
}
