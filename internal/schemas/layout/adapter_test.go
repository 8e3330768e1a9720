package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

const sample = `{
  "pdf_info": [
    {
      "page_idx": 0,
      "page_size": [500, 1000],
      "para_blocks": [
        {"type": "title", "bbox": [50, 100, 250, 150], "lines": [{"spans": [{"type": "text", "content": "Abstract"}]}]},
        {"type": "text", "bbox": [50, 200, 450, 400], "score": 0.93, "lines": [
          {"spans": [{"type": "text", "content": "Speed is "}, {"type": "inline_equation", "content": "v"}]},
          {"spans": [{"type": "text", "content": "constant."}]}
        ]},
        {"type": "image", "bbox": [50, 450, 450, 700], "blocks": [
          {"type": "image_body", "lines": [{"spans": [{"type": "image", "image_path": "abc.jpg"}]}]},
          {"type": "image_caption", "lines": [{"spans": [{"type": "text", "content": "Figure 2"}]}]}
        ]},
        {"type": "mystery", "bbox": [0, 0, 1, 1]}
      ]
    },
    {"page_idx": 1, "page_size": [500, 1000], "para_blocks": []}
  ]
}`

func TestNew(t *testing.T) {
	a := New()
	assert.Equal(t, 60, a.Priority())
	assert.Equal(t, "layout", a.Name())
	assert.True(t, a.Matches("layout.json"))
	assert.True(t, a.Matches("x_middle.json"))
	assert.False(t, a.Matches("x_model.json"))
}

func TestParse(t *testing.T) {
	out, err := New().Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 2, out.PageCount)
	require.Len(t, out.Blocks, 4)

	title := out.Blocks[0]
	assert.Equal(t, domain.BlockTitle, title.Type())
	assert.Equal(t, "Abstract", title.Text())
	assert.InDelta(t, 100.0, title.BBox().X1, 0.001)
	assert.InDelta(t, 100.0, title.BBox().Y1, 0.001)

	para := out.Blocks[1]
	assert.Equal(t, "Speed is $v$ constant.", para.Text())
	assert.Equal(t, 0.93, para.Metadata()["confidence"])

	image := out.Blocks[2]
	assert.Equal(t, domain.BlockImage, image.Type())
	assert.Equal(t, "abc.jpg", image.Metadata()["image_path"])
	assert.Equal(t, []string{"Figure 2"}, image.Content()[domain.ContentCaptions])

	assert.Equal(t, domain.BlockUnknown, out.Blocks[3].Type())
}

func TestParse_Mismatch(t *testing.T) {
	for _, data := range []string{`[]`, `{"pages": []}`, `{"pdf_info": [1]}`, `{`} {
		_, err := New().Parse([]byte(data))
		assert.True(t, errors.Is(err, domain.ErrSchemaMismatch), data)
	}
}
