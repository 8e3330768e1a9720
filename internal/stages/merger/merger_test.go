package merger

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

func para(text string, page int) domain.DocumentElement {
	return domain.DocumentElement{
		Type:     domain.ElementParagraph,
		Content:  domain.Content{domain.ContentText: text},
		Source:   domain.ElementSource{File: "d.pdf", Page: page},
		Metadata: map[string]any{"char_count": len(text)},
	}
}

func elem(t domain.ElementType, text string) domain.DocumentElement {
	return domain.DocumentElement{
		Type:    t,
		Content: domain.Content{domain.ContentText: text},
	}
}

func newDoc(elements ...domain.DocumentElement) *domain.Document {
	doc := &domain.Document{
		Metadata: domain.DocumentMetadata{DocID: "d", ParseStage: domain.StageLayoutParsed},
		Elements: elements,
	}
	doc.Sync()
	return doc
}

func apply(t *testing.T, m *Merger, doc *domain.Document) {
	t.Helper()
	_, err := m.Apply(context.Background(), doc)
	require.NoError(t, err)
}

func TestMerger_HyphenJoin(t *testing.T) {
	doc := newDoc(para("Hello wor-", 0), para("ld, this is a test.", 1))

	apply(t, New(), doc)

	require.Len(t, doc.Elements, 1)
	el := doc.Elements[0]
	assert.Equal(t, "Hello world, this is a test.", el.Text())
	assert.Equal(t, 0, el.Source.Page)
	assert.Equal(t, 1, el.Source.PageEnd)
	assert.Equal(t, 28, el.Metadata["char_count"])
	assert.Equal(t, 2, el.Metadata["fragment_count"])
	assert.Equal(t, 1, doc.Metadata.TotalElements)
}

func TestMerger_UnterminatedJoin(t *testing.T) {
	doc := newDoc(para("and therefore", 0), para("we conclude X.", 0))

	apply(t, New(), doc)

	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "and therefore we conclude X.", doc.Elements[0].Text())
	assert.Zero(t, doc.Elements[0].Source.PageEnd)
}

func TestMerger_BoundaryRespected(t *testing.T) {
	table := elem(domain.ElementTable, "")
	table.Content[domain.ContentHTML] = "<table><tr><td>1</td></tr></table>"
	doc := newDoc(para("the results in", 0), table, para("show a clear trend.", 0))

	apply(t, New(), doc)

	require.Len(t, doc.Elements, 3)
	assert.Equal(t, "the results in", doc.Elements[0].Text())
	assert.Equal(t, domain.ElementTable, doc.Elements[1].Type)
	assert.Equal(t, table.Content, doc.Elements[1].Content)
	assert.Equal(t, "show a clear trend.", doc.Elements[2].Text())
	for i, el := range doc.Elements {
		assert.Equal(t, i, el.ID)
	}
}

func TestMerger_HyphenRequiresLowercase(t *testing.T) {
	tests := []struct {
		name  string
		first string
		next  string
		want  string
	}{
		{"soft hyphen", "inter-", "national trade.", "international trade."},
		{"capital follows", "state-", "Owned firms.", "state- Owned firms."},
		{"digit before", "COVID-19 and 2020-", "pandemic era.", "COVID-19 and 2020- pandemic era."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(para(tt.first, 0), para(tt.next, 0))
			apply(t, New(), doc)
			require.Len(t, doc.Elements, 1)
			assert.Equal(t, tt.want, doc.Elements[0].Text())
		})
	}
}

func TestMerger_CJK(t *testing.T) {
	doc := newDoc(para("本文提出了一种改进的", 0), para("遗传算法。", 1), para("下一句。", 1))

	apply(t, New(), doc)
	require.Len(t, doc.Elements, 2)
	assert.Equal(t, "本文提出了一种改进的遗传算法。", doc.Elements[0].Text())
	assert.Equal(t, 15, doc.Elements[0].Metadata["char_count"])

	spaced := newDoc(para("本文提出了一种改进的", 0), para("遗传算法。", 1))
	apply(t, New(WithCJKJoin(false)), spaced)
	assert.Equal(t, "本文提出了一种改进的 遗传算法。", spaced.Elements[0].Text())
}

func TestEndsSentence(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Done.", true},
		{"Really?", true},
		{"Stop!  ", true},
		{`He said "yes."`, true},
		{"(see above.)", true},
		{"结束。", true},
		{"他说：「好的。」", true},
		{"继续", false},
		{"and so", false},
		{"e.g", false},
		{"", false},
		{"”", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, endsSentence(tt.text), "text %q", tt.text)
	}
}

func TestMerger_EmptyParagraphCloses(t *testing.T) {
	doc := newDoc(para("open", 0), para("  ", 0), para("next.", 0))

	apply(t, New(), doc)

	assert.Len(t, doc.Elements, 3)
}

func TestMerger_Idempotent(t *testing.T) {
	doc := newDoc(
		elem(domain.ElementTitle, "1 Introduction"),
		para("Deep learning has", 0),
		para("trans-", 0),
		para("formed vision.", 1),
		para("Trailing fragment", 1),
		elem(domain.ElementImage, ""),
		para("After image.", 2),
	)

	m := New()
	apply(t, m, doc)
	once := doc.Clone()
	apply(t, m, doc)

	assert.Equal(t, once.Elements, doc.Elements)
	assert.Equal(t, "Deep learning has transformed vision.", doc.Elements[1].Text())
}

func TestMerger_RemapsRegionDivision(t *testing.T) {
	doc := newDoc(
		para("Abstract text.", 0),
		elem(domain.ElementTitle, "1 Introduction"),
		para("split", 0),
		para("body.", 0),
		elem(domain.ElementTitle, "References"),
		para("[1] A.", 1),
	)
	rd := domain.NewRegionDivision(1, 4, 6)
	doc.Metadata.RegionDivision = &rd

	apply(t, New(), doc)

	require.Len(t, doc.Elements, 5)
	require.NotNil(t, doc.Metadata.RegionDivision)
	assert.Equal(t, domain.NewRegionDivision(1, 3, 5), *doc.Metadata.RegionDivision)
	assert.NoError(t, doc.Metadata.RegionDivision.Validate(5))
}

func TestCheckBoundaries(t *testing.T) {
	in := []domain.DocumentElement{para("a", 0), elem(domain.ElementTitle, "t"), para("b", 0)}

	err := checkBoundaries(in, []group{{first: 0, last: 2}})
	assert.True(t, errors.Is(err, domain.ErrMergeBoundaryConflict))

	assert.NoError(t, checkBoundaries(in, []group{{0, 0}, {1, 1}, {2, 2}}))
}

func TestMerger_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	fragments := []string{"alpha", "beta.", "gam-", "ma end!", "这是", "中文。", "quote.\"", ""}
	types := []domain.ElementType{
		domain.ElementTitle, domain.ElementTable, domain.ElementImage,
		domain.ElementCode, domain.ElementEquation,
	}

	for run := 0; run < 200; run++ {
		var elements []domain.DocumentElement
		n := 1 + rng.IntN(25)
		for i := 0; i < n; i++ {
			if rng.IntN(4) == 0 {
				elements = append(elements, elem(types[rng.IntN(len(types))], "x"))
				continue
			}
			elements = append(elements, para(fragments[rng.IntN(len(fragments))], i/5))
		}
		doc := newDoc(elements...)
		before := doc.Clone()

		apply(t, New(), doc)

		// Monotonic element count.
		require.LessOrEqual(t, len(doc.Elements), len(before.Elements))

		// Non-paragraph elements survive unchanged and in order.
		var wantHard, gotHard []domain.DocumentElement
		for _, el := range before.Elements {
			if el.Type != domain.ElementParagraph {
				el.ID = 0
				wantHard = append(wantHard, el)
			}
		}
		for _, el := range doc.Elements {
			if el.Type != domain.ElementParagraph {
				el.ID = 0
				gotHard = append(gotHard, el)
			}
		}
		require.Equal(t, wantHard, gotHard)

		// Dense ids.
		for i, el := range doc.Elements {
			require.Equal(t, i, el.ID)
		}
		require.Equal(t, len(doc.Elements), doc.Metadata.TotalElements)

		// Idempotent.
		again := doc.Clone()
		apply(t, New(), again)
		require.Equal(t, doc.Elements, again.Elements)
	}
}
