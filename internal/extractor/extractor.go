// Package extractor fuses the blocks adapted from several layout sources
// into one canonical, ordered element list with document metadata.
//
// For every page, the highest-priority source that has blocks on that page
// defines the page's elements and their order. Lower-priority sources only
// enrich those elements (image paths, missing text, confidence) when a block
// of the same type sits at nearly the same position.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/logger"
)

const (
	// StageName is recorded on warnings and processing-log entries.
	StageName = "extract"

	// DefaultMatchTolerance is the maximum centre distance, on the
	// 0-1000 page grid, for two blocks to describe the same thing.
	DefaultMatchTolerance = 50.0
)

// Input is everything known about one document before extraction.
type Input struct {
	// DocID is the document identifier.
	DocID string

	// PDFPath is the original PDF location, "" if unknown.
	PDFPath string

	// WorkDir resolves relative image paths. Empty leaves them relative.
	WorkDir string

	// Sources are the adapted source files, in any order.
	Sources []domain.SourceBlocks
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMatchTolerance sets the centre distance used to pair blocks across sources.
func WithMatchTolerance(tol float64) Option {
	return func(e *Extractor) {
		if tol > 0 {
			e.tolerance = tol
		}
	}
}

// WithLanguageThreshold sets the Han ratio above which text is classed "zh".
func WithLanguageThreshold(ratio float64) Option {
	return func(e *Extractor) {
		if ratio > 0 && ratio < 1 {
			e.cjkRatio = ratio
		}
	}
}

// Extractor builds canonical documents from adapted sources.
// It holds no per-document state and is safe for concurrent use.
type Extractor struct {
	tolerance float64
	cjkRatio  float64
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		tolerance: DefaultMatchTolerance,
		cjkRatio:  DefaultCJKRatio,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fuses the sources into a document at stage layout_json_parsed.
// It returns domain.ErrMissingSource when no source has any block and
// domain.ErrEmptyDocument when nothing survives classification. No
// partial document is returned alongside an error.
//
//nolint:gocyclo // Single pass over pages; splitting it hides the order logic.
func (e *Extractor) Extract(ctx context.Context, in Input) (*domain.Document, []domain.Warning, error) {
	sources := orderSources(in.Sources)
	if countBlocks(sources) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", in.DocID, domain.ErrMissingSource)
	}

	pages := pageSet(sources)
	var (
		elements []domain.DocumentElement
		warnings []domain.Warning
		section  string
	)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		primary := primaryFor(sources, page)
		blocks := blocksOn(sources[primary], page)
		logger.Debug("page %d: %d blocks from %s", page, len(blocks), sources[primary].Schema)

		for _, b := range blocks {
			elemType, ok := classify(b)
			if !ok {
				if b.Type() != domain.BlockUnknown {
					continue // page furniture
				}
				warnings = append(warnings, domain.NewWarning(domain.WarnBlockDropped, StageName,
					"page %d: dropped empty block of unknown type", page))
				continue
			}

			el := domain.DocumentElement{
				Type:    elemType,
				Content: b.Content(),
				Source: domain.ElementSource{
					File:   in.DocID + ".pdf",
					Page:   page,
					BBox:   b.BBox(),
					Schema: sources[primary].Schema,
				},
				Metadata: map[string]any{},
			}
			if v, ok := b.Metadata()["confidence"]; ok {
				el.Metadata["confidence"] = v
			}
			if p, ok := b.Metadata()["image_path"].(string); ok && p != "" {
				el.Source.ImagePath = p
			}

			e.enrich(&el, b, sources[primary+1:])

			if isEmpty(&el) {
				logger.Debug("skipping empty %s on page %d", el.Type, page)
				continue
			}

			if el.Source.ImagePath != "" {
				el.Source.ImagePath = resolvePath(in.WorkDir, el.Source.ImagePath)
			} else if el.Type == domain.ElementImage {
				warnings = append(warnings, domain.NewWarning(domain.WarnImageUnmatched, StageName,
					"page %d: image has no extracted file", page))
			}

			if el.Type == domain.ElementTitle {
				section = strings.TrimSpace(el.Text())
			} else {
				el.Source.SectionTitle = section
			}

			describe(&el, b)
			elements = append(elements, el)
		}
	}

	if len(elements) == 0 {
		return nil, warnings, fmt.Errorf("%s: %w", in.DocID, domain.ErrEmptyDocument)
	}

	doc := &domain.Document{Elements: elements}
	doc.Sync()

	language := e.documentLanguage(doc.Elements)
	doc.Metadata = domain.DocumentMetadata{
		DocID:         in.DocID,
		DocTitle:      documentTitle(in.DocID, doc.Elements),
		ParseStage:    domain.StageLayoutParsed,
		Language:      language,
		SourceFile:    in.DocID + ".pdf",
		PDFPath:       in.PDFPath,
		TotalPages:    totalPages(sources),
		TotalElements: len(doc.Elements),
		Abstract:      e.abstracts(doc.Elements),
	}

	logger.Info("extracted %s: pages=%d elements=%d language=%s",
		in.DocID, doc.Metadata.TotalPages, doc.Metadata.TotalElements, language)

	return doc, warnings, nil
}

// orderSources returns non-empty sources by descending priority.
// Equal priorities keep their input order.
func orderSources(in []domain.SourceBlocks) []domain.SourceBlocks {
	out := make([]domain.SourceBlocks, 0, len(in))
	for _, s := range in {
		if len(s.Blocks) > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

func countBlocks(sources []domain.SourceBlocks) int {
	n := 0
	for _, s := range sources {
		n += len(s.Blocks)
	}
	return n
}

// pageSet returns every page index with at least one block, ascending.
func pageSet(sources []domain.SourceBlocks) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, s := range sources {
		for _, b := range s.Blocks {
			if p := b.PageIndex(); !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	sort.Ints(pages)
	return pages
}

// primaryFor returns the index of the first source with blocks on page.
func primaryFor(sources []domain.SourceBlocks, page int) int {
	for i, s := range sources {
		for _, b := range s.Blocks {
			if b.PageIndex() == page {
				return i
			}
		}
	}
	return 0
}

// blocksOn returns the source's blocks on page in within-page order.
func blocksOn(src domain.SourceBlocks, page int) []domain.RawBlock {
	var out []domain.RawBlock
	for _, b := range src.Blocks {
		if b.PageIndex() == page {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order() < out[j].Order()
	})
	return out
}

func totalPages(sources []domain.SourceBlocks) int {
	n := 0
	for _, s := range sources {
		n = max(n, s.PageCount)
		for _, b := range s.Blocks {
			n = max(n, b.PageIndex()+1)
		}
	}
	return n
}

// classify maps a block onto an element type. Unknown blocks with text
// become paragraphs; furniture and empty unknown blocks are rejected.
func classify(b domain.RawBlock) (domain.ElementType, bool) {
	if et, ok := b.Type().ElementType(); ok {
		return et, true
	}
	if b.Type() == domain.BlockUnknown && strings.TrimSpace(b.Text()) != "" {
		return domain.ElementParagraph, true
	}
	return "", false
}

// enrich fills gaps in el from the closest same-typed block in lower
// priority sources.
func (e *Extractor) enrich(el *domain.DocumentElement, primary domain.RawBlock, lower []domain.SourceBlocks) {
	for _, src := range lower {
		match := e.closest(primary, src)
		if match == nil {
			continue
		}
		if el.Source.ImagePath == "" {
			if p, ok := match.Metadata()["image_path"].(string); ok {
				el.Source.ImagePath = p
			}
		}
		if _, ok := el.Metadata["confidence"]; !ok {
			if v, ok := match.Metadata()["confidence"]; ok {
				el.Metadata["confidence"] = v
			}
		}
		if isTextType(el.Type) && strings.TrimSpace(el.Content.Text()) == "" && match.Text() != "" {
			el.Content.SetText(match.Text())
		}
		mc := match.Content()
		if el.Type == domain.ElementTable && contentString(el.Content, domain.ContentHTML) == "" {
			if html := contentString(mc, domain.ContentHTML); html != "" {
				el.Content[domain.ContentHTML] = html
			}
		}
		if el.Type == domain.ElementTable || el.Type == domain.ElementImage {
			if len(captions(el.Content)) == 0 && len(captions(mc)) > 0 {
				el.Content[domain.ContentCaptions] = captions(mc)
			}
		}
	}
}

// closest returns the block in src on the same page with the same type
// whose centre is nearest to ref, within tolerance.
func (e *Extractor) closest(ref domain.RawBlock, src domain.SourceBlocks) domain.RawBlock {
	if ref.BBox().IsZero() {
		return nil
	}
	rx, ry := ref.BBox().Center()

	var (
		best     domain.RawBlock
		bestDist = e.tolerance
	)
	for _, b := range src.Blocks {
		if b.PageIndex() != ref.PageIndex() || b.Type() != ref.Type() || b.BBox().IsZero() {
			continue
		}
		bx, by := b.BBox().Center()
		if d := distance(rx, ry, bx, by); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

func isTextType(t domain.ElementType) bool {
	switch t {
	case domain.ElementParagraph, domain.ElementTitle, domain.ElementCode, domain.ElementEquation:
		return true
	default:
		return false
	}
}

// isEmpty reports whether an element carries no usable content.
func isEmpty(el *domain.DocumentElement) bool {
	switch el.Type {
	case domain.ElementTable:
		return strings.TrimSpace(contentString(el.Content, domain.ContentHTML)) == "" &&
			len(captions(el.Content)) == 0 && el.Source.ImagePath == ""
	case domain.ElementImage:
		return len(captions(el.Content)) == 0 && el.Source.ImagePath == ""
	default:
		return strings.TrimSpace(el.Content.Text()) == ""
	}
}

// describe fills per-type element metadata.
func describe(el *domain.DocumentElement, b domain.RawBlock) {
	md := el.Metadata
	switch el.Type {
	case domain.ElementParagraph, domain.ElementTitle:
		md["char_count"] = utf8.RuneCountInString(el.Content.Text())
	case domain.ElementTable:
		tableType, _ := b.Metadata()["table_type"].(string)
		if tableType == "" {
			tableType = "simple_table"
		}
		md["table_type"] = tableType
		rows, cols := tableShape(contentString(el.Content, domain.ContentHTML))
		md["row_count"] = rows
		md["col_count"] = cols
	case domain.ElementCode:
		text := el.Content.Text()
		md["line_count"] = strings.Count(text, "\n") + 1
		md["language"] = contentString(el.Content, domain.ContentLanguage)
	case domain.ElementEquation:
		format := contentString(el.Content, domain.ContentFormat)
		if format == "" {
			format = "latex"
		}
		md["format"] = format
	}
}

func contentString(c domain.Content, key string) string {
	s, _ := c[key].(string)
	return s
}

func captions(c domain.Content) []string {
	switch v := c[domain.ContentCaptions].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func resolvePath(workDir, p string) string {
	if workDir == "" || filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(filepath.Join(workDir, p))
}

func documentTitle(docID string, elements []domain.DocumentElement) string {
	for i := range elements {
		if elements[i].Type == domain.ElementTitle {
			if t := strings.TrimSpace(elements[i].Text()); t != "" {
				return t
			}
		}
	}
	return docID
}
