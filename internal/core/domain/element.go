package domain

// ElementType identifies the semantic kind of a DocumentElement.
type ElementType string

// Canonical element types.
const (
	ElementParagraph ElementType = "paragraph"
	ElementTitle     ElementType = "title"
	ElementTable     ElementType = "table"
	ElementImage     ElementType = "image"
	ElementCode      ElementType = "code"
	ElementEquation  ElementType = "equation"
)

// IsValid returns true if the element type is one of the canonical types.
func (t ElementType) IsValid() bool {
	switch t {
	case ElementParagraph, ElementTitle, ElementTable, ElementImage, ElementCode, ElementEquation:
		return true
	default:
		return false
	}
}

// IsBoundary reports whether the type stops fragment merging.
// Every canonical type except paragraph is a hard boundary.
func (t ElementType) IsBoundary() bool {
	return t != ElementParagraph
}

// String returns the string representation.
func (t ElementType) String() string {
	return string(t)
}

// Content keys shared by adapters, extractor and stages.
const (
	ContentText        = "text"
	ContentLevel       = "level"
	ContentHTML        = "html"
	ContentCaptions    = "captions"
	ContentFootnotes   = "footnotes"
	ContentDescription = "description"
	ContentLanguage    = "language"
	ContentFormat      = "format"
)

// Content is the type-dependent payload of an element.
// Text types carry "text"; tables carry "html" and "captions";
// images carry "captions" and, once described, "description".
type Content map[string]any

// Text returns the "text" entry, or "" when absent or not a string.
func (c Content) Text() string {
	if c == nil {
		return ""
	}
	s, _ := c[ContentText].(string)
	return s
}

// SetText sets the "text" entry.
func (c Content) SetText(text string) {
	c[ContentText] = text
}

// Clone returns a shallow copy of the content.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// BBox is an axis-aligned bounding box on a 0-1000 page grid.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// IsZero returns true when no coordinates were recorded.
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Center returns the centre point of the box.
func (b BBox) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// ElementSource records where an element came from.
type ElementSource struct {
	// File is the originating PDF file name.
	File string `json:"file"`

	// Page is the 0-based page index of the first fragment.
	Page int `json:"page"`

	// PageEnd is the page index of the last fragment when an element
	// spans pages after merging. Zero means the element is single-page.
	PageEnd int `json:"page_end,omitempty"`

	// BBox is the bounding box of the first fragment.
	BBox BBox `json:"bbox"`

	// Schema names the layout source that contributed the winning content.
	Schema string `json:"schema"`

	// SectionTitle is the nearest preceding title text.
	SectionTitle string `json:"section_title,omitempty"`

	// ImagePath is the extracted image location for image and table elements.
	ImagePath string `json:"image_path,omitempty"`
}

// LastPage returns the last page the element touches.
func (s ElementSource) LastPage() int {
	if s.PageEnd > s.Page {
		return s.PageEnd
	}
	return s.Page
}

// DocumentElement is one structural unit of the document.
type DocumentElement struct {
	// ID is the 0-based dense position in reading order.
	ID int `json:"id"`

	// Type is the semantic kind.
	Type ElementType `json:"type"`

	// Content is the type-dependent payload.
	Content Content `json:"content"`

	// Source is the provenance of the element.
	Source ElementSource `json:"source"`

	// Metadata carries auxiliary fields such as char_count and confidence.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text is a shorthand for e.Content.Text().
func (e *DocumentElement) Text() string {
	return e.Content.Text()
}

// Renumber assigns dense 0-based ids in slice order.
func Renumber(elements []DocumentElement) {
	for i := range elements {
		elements[i].ID = i
	}
}
