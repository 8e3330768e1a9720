package domain

import (
	"encoding/json"
	"fmt"
)

// Span is a half-open index range [Start, End) over element ids.
// It is serialised as a two-element JSON array.
type Span struct {
	Start int
	End   int
}

// Len returns the number of elements in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty returns true if the span covers no elements.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether index i lies inside the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// MarshalJSON encodes the span as [start, end].
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON decodes a [start, end] pair.
func (s *Span) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: span needs 2 values, got %d", ErrInvalidInput, len(pair))
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// RegionDivision partitions the element sequence into head, body and tail.
type RegionDivision struct {
	Head Span `json:"head"`
	Body Span `json:"body"`
	Tail Span `json:"tail"`
}

// NewRegionDivision builds the partition for n elements from the body
// start and tail start indices. tailStart == n means an empty tail.
func NewRegionDivision(bodyStart, tailStart, n int) RegionDivision {
	return RegionDivision{
		Head: Span{Start: 0, End: bodyStart},
		Body: Span{Start: bodyStart, End: tailStart},
		Tail: Span{Start: tailStart, End: n},
	}
}

// Validate checks that the spans are contiguous, ordered and cover [0, n).
func (r RegionDivision) Validate(n int) error {
	spans := []Span{r.Head, r.Body, r.Tail}
	next := 0
	for _, s := range spans {
		if s.Start != next || s.End < s.Start {
			return fmt.Errorf("%w: region spans %v do not partition [0,%d)", ErrInvalidInput, spans, n)
		}
		next = s.End
	}
	if next != n {
		return fmt.Errorf("%w: region spans end at %d, want %d", ErrInvalidInput, next, n)
	}
	return nil
}

// Region names a span of the division.
type Region string

// Region names.
const (
	RegionHead Region = "head"
	RegionBody Region = "body"
	RegionTail Region = "tail"
)

// Span returns the span for the named region.
func (r RegionDivision) Span(region Region) (Span, bool) {
	switch region {
	case RegionHead:
		return r.Head, true
	case RegionBody:
		return r.Body, true
	case RegionTail:
		return r.Tail, true
	default:
		return Span{}, false
	}
}

// RegionOf returns which region contains element index i.
func (r RegionDivision) RegionOf(i int) Region {
	switch {
	case r.Head.Contains(i):
		return RegionHead
	case r.Body.Contains(i):
		return RegionBody
	default:
		return RegionTail
	}
}

// Abstract is one abstract section found in the front matter.
type Abstract struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// DocumentMetadata is the document-level header of the canonical artifact.
type DocumentMetadata struct {
	DocID          string          `json:"doc_id"`
	DocTitle       string          `json:"doc_title"`
	ParseStage     ParseStage      `json:"parse_stage"`
	Language       string          `json:"language"`
	SourceFile     string          `json:"source_file"`
	PDFPath        string          `json:"pdf_path"`
	TotalPages     int             `json:"total_pages"`
	TotalElements  int             `json:"total_elements"`
	RegionDivision *RegionDivision `json:"region_division,omitempty"`
	Abstract       []Abstract      `json:"abstract,omitempty"`
}

// Document is the canonical artifact: metadata plus ordered elements.
type Document struct {
	Metadata DocumentMetadata  `json:"metadata"`
	Elements []DocumentElement `json:"elements"`
}

// Sync renumbers elements and refreshes total_elements.
func (d *Document) Sync() {
	Renumber(d.Elements)
	d.Metadata.TotalElements = len(d.Elements)
}

// Clone returns a copy whose element slice and contents can be mutated
// without affecting d.
func (d *Document) Clone() *Document {
	out := &Document{Metadata: d.Metadata}
	if d.Metadata.RegionDivision != nil {
		rd := *d.Metadata.RegionDivision
		out.Metadata.RegionDivision = &rd
	}
	if d.Metadata.Abstract != nil {
		out.Metadata.Abstract = append([]Abstract(nil), d.Metadata.Abstract...)
	}
	out.Elements = make([]DocumentElement, len(d.Elements))
	for i, e := range d.Elements {
		e.Content = e.Content.Clone()
		if e.Metadata != nil {
			md := make(map[string]any, len(e.Metadata))
			for k, v := range e.Metadata {
				md[k] = v
			}
			e.Metadata = md
		}
		out.Elements[i] = e
	}
	return out
}
