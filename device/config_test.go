package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageConfig(t *testing.T) {
	config, err := parsePageConfigFromBytes([]byte(`
output_device: png
page_size: [595, 842]
resolution: [150, 150]
num_copies: 2
text_mode: TextObjs
line_width_min: 0.4
`))
	require.NoError(t, err)
	assert.Equal(t, "png", config.OutputDevice)
	assert.Equal(t, []float64{595, 842}, config.PageSize)
	assert.Equal(t, []float64{150, 150}, config.Resolution)
	assert.Equal(t, 2, config.NumCopies)
	assert.Equal(t, "TextObjs", config.TextMode)
	assert.Equal(t, 0.4, config.LineWidthMin)
}

func TestParsePageConfigRejectsUnknownKeys(t *testing.T) {
	_, err := parsePageConfigFromBytes([]byte("paper_size: [1, 2]\n"))
	assert.Error(t, err)
}

func TestParsePageConfigRejectsBadTextMode(t *testing.T) {
	_, err := parsePageConfigFromBytes([]byte("text_mode: Fancy\n"))
	assert.Error(t, err)
}

func TestParsePageConfigEmptyPath(t *testing.T) {
	config, err := ParsePageConfig("")
	require.NoError(t, err)
	assert.Equal(t, PageConfig{}, config)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(Null{})
	d, ok := r.Lookup("null")
	require.True(t, ok)
	assert.Equal(t, "null", d.Name())
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"null"}, r.Names())
	assert.NoError(t, r.CloseAll())
}
