// Package merger repairs paragraphs that the layout parser split across
// page or column breaks.
package merger

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Name is the stage name used in configuration and logs.
const Name = "merge"

// Ensure Merger implements the interface.
var _ driven.Stage = (*Merger)(nil)

// Merger joins unterminated paragraph fragments.
type Merger struct {
	cjkJoin bool
}

// Option configures the merger.
type Option func(*Merger)

// WithCJKJoin controls whether two Han characters meeting at a fragment
// boundary are joined without a space.
func WithCJKJoin(enabled bool) Option {
	return func(m *Merger) {
		m.cjkJoin = enabled
	}
}

// New creates a merger.
func New(opts ...Option) *Merger {
	m := &Merger{cjkJoin: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the stage name.
func (m *Merger) Name() string {
	return Name
}

// Target returns domain.StageFragmentMerged.
func (m *Merger) Target() domain.ParseStage {
	return domain.StageFragmentMerged
}

// group is one output element and the input range it came from.
type group struct {
	first, last int
}

// Apply merges fragments in a single left-to-right scan.
// Any non-paragraph element and any paragraph without text closes the
// open accumulator and passes through unchanged.
func (m *Merger) Apply(ctx context.Context, doc *domain.Document) ([]domain.Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := doc.Elements
	groups := make([]group, 0, len(in))
	open := -1 // index into groups of the accumulator, -1 when closed
	acc := ""

	for i := range in {
		el := &in[i]
		text := el.Text()
		if el.Type != domain.ElementParagraph || strings.TrimSpace(text) == "" {
			open = -1
			groups = append(groups, group{first: i, last: i})
			continue
		}
		if open >= 0 && !endsSentence(acc) {
			acc = m.join(acc, text)
			groups[open].last = i
			continue
		}
		groups = append(groups, group{first: i, last: i})
		open = len(groups) - 1
		acc = text
	}

	if err := checkBoundaries(in, groups); err != nil {
		return nil, err
	}

	out := make([]domain.DocumentElement, 0, len(groups))
	oldToNew := make([]int, len(in))
	for g, grp := range groups {
		for k := grp.first; k <= grp.last; k++ {
			oldToNew[k] = g
		}
		if grp.first == grp.last {
			out = append(out, in[grp.first])
			continue
		}
		out = append(out, m.mergeGroup(in[grp.first:grp.last+1]))
	}

	if len(out) < len(in) {
		logger.Debug("merged %s: %d -> %d elements", doc.Metadata.DocID, len(in), len(out))
	}

	if rd := doc.Metadata.RegionDivision; rd != nil {
		remapped := remap(*rd, oldToNew, len(in), len(out))
		doc.Metadata.RegionDivision = &remapped
	}
	doc.Elements = out
	doc.Sync()
	return nil, nil
}

// mergeGroup builds one paragraph from consecutive fragments. The first
// fragment's source and metadata are kept; the page range is widened.
func (m *Merger) mergeGroup(frags []domain.DocumentElement) domain.DocumentElement {
	first := frags[0]
	text := first.Text()
	for _, f := range frags[1:] {
		text = m.join(text, f.Text())
	}

	merged := domain.DocumentElement{
		Type:     domain.ElementParagraph,
		Content:  first.Content.Clone(),
		Source:   first.Source,
		Metadata: make(map[string]any, len(first.Metadata)+2),
	}
	for k, v := range first.Metadata {
		merged.Metadata[k] = v
	}
	merged.Content.SetText(text)
	merged.Metadata["char_count"] = utf8.RuneCountInString(text)
	merged.Metadata["fragment_count"] = len(frags)

	if last := frags[len(frags)-1].Source.LastPage(); last > merged.Source.Page {
		merged.Source.PageEnd = last
	}
	return merged
}

// join concatenates two fragments. A soft line-break hyphen between two
// lowercase letters is dropped; otherwise a single space separates them,
// except between Han characters when CJK joining is enabled.
func (m *Merger) join(acc, next string) string {
	acc = strings.TrimRightFunc(acc, unicode.IsSpace)
	next = strings.TrimLeftFunc(next, unicode.IsSpace)
	if acc == "" || next == "" {
		return acc + next
	}

	head, _ := utf8.DecodeRuneInString(next)
	if softHyphen(acc) && unicode.IsLower(head) {
		return acc[:len(acc)-1] + next
	}

	tail, _ := utf8.DecodeLastRuneInString(acc)
	if m.cjkJoin && isCJK(tail) && isCJK(head) {
		return acc + next
	}
	return acc + " " + next
}

// softHyphen reports whether s ends in "-" directly after a lowercase letter.
func softHyphen(s string) bool {
	if !strings.HasSuffix(s, "-") {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
	return unicode.IsLower(prev)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.In(r, unicode.Hiragana, unicode.Katakana) ||
		strings.ContainsRune(cjkPunctuation, r)
}

// checkBoundaries asserts that every merged group covers paragraphs only.
func checkBoundaries(in []domain.DocumentElement, groups []group) error {
	for _, g := range groups {
		if g.first == g.last {
			continue
		}
		for k := g.first; k <= g.last; k++ {
			if in[k].Type != domain.ElementParagraph {
				return fmt.Errorf("%w: %s element %d inside merge of [%d, %d]",
					domain.ErrMergeBoundaryConflict, in[k].Type, k, g.first, g.last)
			}
		}
	}
	return nil
}

// remap carries a region division over to the merged index space.
// Region starts are titles, so they always begin a group.
func remap(rd domain.RegionDivision, oldToNew []int, oldN, newN int) domain.RegionDivision {
	at := func(i int) int {
		if i >= oldN {
			return newN
		}
		return oldToNew[i]
	}
	return domain.NewRegionDivision(at(rd.Body.Start), at(rd.Tail.Start), newN)
}
