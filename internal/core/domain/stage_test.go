package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage_Order(t *testing.T) {
	ordered := []ParseStage{
		StageLayoutParsed,
		StageFragmentMerged,
		StageRegionDivided,
		StageMetadataExtracted,
		StageImageDescription,
		StageRAGEmbedding,
	}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i].AtLeast(ordered[i-1]), "%s should be past %s", ordered[i], ordered[i-1])
		assert.False(t, ordered[i-1].AtLeast(ordered[i]))
	}
}

func TestParseStage_StringRoundTrip(t *testing.T) {
	tests := []struct {
		stage ParseStage
		value string
	}{
		{StageLayoutParsed, "layout_json_parsed"},
		{StageFragmentMerged, "fragment_merged"},
		{StageRegionDivided, "region_divided"},
		{StageMetadataExtracted, "metadata_extracted"},
		{StageImageDescription, "image_description"},
		{StageRAGEmbedding, "rag_embedding"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.value, tt.stage.String())
			parsed, err := ParseStageFromString(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.stage, parsed)
		})
	}
}

func TestParseStageFromString_Invalid(t *testing.T) {
	_, err := ParseStageFromString("LAYOUT_JSON_PARSED")
	assert.True(t, errors.Is(err, ErrInvalidStage))
}

func TestParseStage_ShouldSkip(t *testing.T) {
	assert.True(t, StageRegionDivided.ShouldSkip(StageFragmentMerged, false))
	assert.True(t, StageFragmentMerged.ShouldSkip(StageFragmentMerged, false))
	assert.False(t, StageFragmentMerged.ShouldSkip(StageFragmentMerged, true))
	assert.False(t, StageLayoutParsed.ShouldSkip(StageFragmentMerged, false))
}

func TestParseStage_AdvanceNeverRegresses(t *testing.T) {
	assert.Equal(t, StageRegionDivided, StageRegionDivided.Advance(StageFragmentMerged))
	assert.Equal(t, StageFragmentMerged, StageLayoutParsed.Advance(StageFragmentMerged))
}

func TestParseStage_JSON(t *testing.T) {
	data, err := json.Marshal(StageFragmentMerged)
	require.NoError(t, err)
	assert.Equal(t, `"fragment_merged"`, string(data))

	var s ParseStage
	require.NoError(t, json.Unmarshal([]byte(`"region_divided"`), &s))
	assert.Equal(t, StageRegionDivided, s)

	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &s))
}
