package domain

import (
	"encoding/json"
	"fmt"
)

// ParseStage records how far a document has progressed through the pipeline.
// Stages are totally ordered; the zero value means no stage has run.
type ParseStage int

// Ordered parse stages.
const (
	StageNone ParseStage = iota
	StageLayoutParsed
	StageFragmentMerged
	StageRegionDivided
	StageMetadataExtracted
	StageImageDescription
	StageRAGEmbedding
)

var stageNames = map[ParseStage]string{
	StageNone:              "",
	StageLayoutParsed:      "layout_json_parsed",
	StageFragmentMerged:    "fragment_merged",
	StageRegionDivided:     "region_divided",
	StageMetadataExtracted: "metadata_extracted",
	StageImageDescription:  "image_description",
	StageRAGEmbedding:      "rag_embedding",
}

// ParseStageFromString parses the persisted stage value.
func ParseStageFromString(s string) (ParseStage, error) {
	for stage, name := range stageNames {
		if name == s {
			return stage, nil
		}
	}
	return StageNone, fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// String returns the persisted stage value.
func (s ParseStage) String() string {
	return stageNames[s]
}

// IsValid returns true if the stage is a known value.
func (s ParseStage) IsValid() bool {
	_, ok := stageNames[s]
	return ok
}

// AtLeast reports whether s is at or past other.
func (s ParseStage) AtLeast(other ParseStage) bool {
	return s >= other
}

// Advance returns the later of s and target; stages never regress.
func (s ParseStage) Advance(target ParseStage) ParseStage {
	if target > s {
		return target
	}
	return s
}

// ShouldSkip reports whether a stage targeting target should be a no-op.
func (s ParseStage) ShouldSkip(target ParseStage, force bool) bool {
	return !force && s.AtLeast(target)
}

// MarshalJSON encodes the stage as its string value.
func (s ParseStage) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a stage string value.
func (s *ParseStage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	stage, err := ParseStageFromString(str)
	if err != nil {
		return err
	}
	*s = stage
	return nil
}
