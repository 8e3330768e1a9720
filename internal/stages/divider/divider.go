// Package divider partitions a document's elements into head, body and
// tail regions using title elements as anchors.
package divider

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Name is the stage name used in configuration and logs.
const Name = "divide"

// Ensure Divider implements the interface.
var _ driven.Stage = (*Divider)(nil)

// Divider finds the body-opening and tail-opening titles.
type Divider struct {
	rules         []Rule
	minScanOffset int
	tocRepeat     bool
}

// Option configures the divider.
type Option func(*Divider)

// WithRules replaces the built-in rules.
func WithRules(rules []Rule) Option {
	return func(d *Divider) {
		if len(rules) > 0 {
			d.rules = rules
		}
	}
}

// WithMinScanOffset sets the element index before which body openers are ignored.
func WithMinScanOffset(offset int) Option {
	return func(d *Divider) {
		if offset >= 0 {
			d.minScanOffset = offset
		}
	}
}

// WithTOCRepeat controls whether a body opener that a table of contents
// lists is taken from its later, real occurrence.
func WithTOCRepeat(enabled bool) Option {
	return func(d *Divider) {
		d.tocRepeat = enabled
	}
}

// New creates a divider with the default rules.
func New(opts ...Option) *Divider {
	d := &Divider{
		rules:     DefaultRules(),
		tocRepeat: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the stage name.
func (d *Divider) Name() string {
	return Name
}

// Target returns domain.StageRegionDivided.
func (d *Divider) Target() domain.ParseStage {
	return domain.StageRegionDivided
}

// anchor is a classified title element.
type anchor struct {
	index int
	key   string
	role  Role
}

// Apply writes the region division. Elements are not modified.
func (d *Divider) Apply(ctx context.Context, doc *domain.Document) ([]domain.Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(doc.Elements)
	titles := d.classify(doc.Elements)
	log := logger.WithFields(logger.Fields{"doc_id": doc.Metadata.DocID, "stage": Name})

	var warnings []domain.Warning
	division := domain.NewRegionDivision(n, n, n)

	body := d.bodyStart(titles)
	switch {
	case body < 0:
		w := domain.NewWarning(domain.WarnRegionNotFound, Name, "no body-opening title found; whole document is head")
		warnings = append(warnings, w)
		log.Warn(w.Message)
	default:
		start := titles[body].index
		tail := n
		for _, t := range titles[body+1:] {
			if t.role == RoleTailOpener {
				tail = t.index
				break
			}
		}
		if tail == n {
			w := domain.NewWarning(domain.WarnRegionNotFound, Name, "no tail-opening title after element %d; tail is empty", start)
			warnings = append(warnings, w)
			log.Warn(w.Message)
		}
		division = domain.NewRegionDivision(start, tail, n)
	}

	if err := division.Validate(n); err != nil {
		return nil, fmt.Errorf("region division: %w", err)
	}

	logger.Debug("divided %s: head=%v body=%v tail=%v", doc.Metadata.DocID,
		division.Head, division.Body, division.Tail)
	doc.Metadata.RegionDivision = &division
	return warnings, nil
}

// classify returns every title element with its role, in element order.
func (d *Divider) classify(elements []domain.DocumentElement) []anchor {
	var out []anchor
	for i := range elements {
		if elements[i].Type != domain.ElementTitle {
			continue
		}
		key := Normalize(elements[i].Text())
		if key == "" {
			continue
		}
		rule, _ := Classify(d.rules, key)
		out = append(out, anchor{index: i, key: key, role: rule.Role})
	}
	return out
}

// bodyStart returns the position in titles of the body opener, or -1.
//
// Openers before the scan offset are skipped. The offset is the larger of
// the configured minimum and the index just past the last contents or
// front-matter title that precedes both a later body opener and the first
// tail opener following some body opener.
func (d *Divider) bodyStart(titles []anchor) int {
	limit := -1
	seenBody := false
	lastOpener := -1
	for _, t := range titles {
		if t.role == RoleBodyOpener {
			seenBody = true
			if t.index >= d.minScanOffset {
				lastOpener = t.index
			}
		}
		if t.role == RoleTailOpener && seenBody && limit < 0 {
			limit = t.index
		}
	}

	offset := d.minScanOffset
	for _, t := range titles {
		if t.index >= lastOpener || (limit >= 0 && t.index >= limit) {
			break
		}
		if t.role == RoleTOC || t.role == RoleFrontMatter {
			offset = max(offset, t.index+1)
		}
	}

	found := -1
	for i, t := range titles {
		if t.role == RoleBodyOpener && t.index >= offset {
			found = i
			break
		}
	}
	if found < 0 || !d.tocRepeat {
		return found
	}
	if repeat := repeatOf(titles, found); repeat >= 0 {
		return repeat
	}
	return found
}

// maxContentsGap is the largest element distance between neighbouring
// entries of a table of contents.
const maxContentsGap = 2

// contentsBlock returns the position of the last entry of the table of
// contents containing titles[pos], or -1 when pos is not inside one. A
// table of contents is the contents heading followed by closely spaced titles.
func contentsBlock(titles []anchor, pos int) int {
	heading := -1
	for i := pos - 1; i >= 0; i-- {
		if titles[i].role == RoleTOC {
			heading = i
			break
		}
	}
	if heading < 0 {
		return -1
	}
	end := heading
	for end+1 < len(titles) && titles[end+1].index-titles[end].index <= maxContentsGap {
		end++
	}
	if pos > end {
		return -1
	}
	return end
}

// repeatOf returns the position of the real occurrence of a body opener
// listed in a table of contents, or -1. The occurrence must follow the
// contents block and precede the first tail opener after it.
func repeatOf(titles []anchor, pos int) int {
	end := contentsBlock(titles, pos)
	if end < 0 {
		return -1
	}
	for i := end + 1; i < len(titles); i++ {
		if titles[i].role == RoleTailOpener {
			break
		}
		if titles[i].key == titles[pos].key {
			return i
		}
	}
	return -1
}
