package domain

// BlockType is the type tag a schema adapter assigns to a raw block.
// It is a superset of ElementType: page furniture and unrecognised
// tags are kept so the extractor can decide what to drop.
type BlockType string

// Block types beyond the canonical element types.
const (
	BlockParagraph  BlockType = "paragraph"
	BlockTitle      BlockType = "title"
	BlockTable      BlockType = "table"
	BlockImage      BlockType = "image"
	BlockCode       BlockType = "code"
	BlockEquation   BlockType = "equation"
	BlockPageHeader BlockType = "page_header"
	BlockPageFooter BlockType = "page_footer"
	BlockPageNumber BlockType = "page_number"
	BlockUnknown    BlockType = "unknown"
)

// IsPageFurniture returns true for running headers, footers and page numbers.
func (t BlockType) IsPageFurniture() bool {
	return t == BlockPageHeader || t == BlockPageFooter || t == BlockPageNumber
}

// ElementType maps the block type onto a canonical element type.
// ok is false for furniture and unknown blocks.
func (t BlockType) ElementType() (ElementType, bool) {
	et := ElementType(t)
	return et, et.IsValid()
}

// RawBlock is the uniform view of one layout block, regardless of
// which source schema produced it.
type RawBlock interface {
	// Type returns the adapter-assigned type, BlockUnknown if unrecognised.
	Type() BlockType

	// Text returns the plain text payload, possibly empty.
	Text() string

	// BBox returns the block's box on the 0-1000 page grid.
	BBox() BBox

	// PageIndex returns the 0-based page index.
	PageIndex() int

	// Order returns the block's position within its page in source order.
	Order() int

	// Content returns the type-dependent payload in element form.
	Content() Content

	// Metadata returns auxiliary values (confidence, level, language).
	Metadata() map[string]any

	// RawPayload returns the undecoded source object for debugging.
	RawPayload() map[string]any
}

// SourceFile is one layout JSON file found for a document.
type SourceFile struct {
	// Name is the base file name, used for adapter selection.
	Name string

	// Path is the absolute location.
	Path string

	// Data is the file content.
	Data []byte
}

// SourceBlocks is the adapted output of one source file.
type SourceBlocks struct {
	// Schema is the adapter name that produced the blocks.
	Schema string

	// Priority is the adapter priority; higher wins during fusion.
	Priority int

	// Blocks are in source order.
	Blocks []RawBlock

	// PageCount is the page count the source declares, 0 when unknown.
	PageCount int
}
