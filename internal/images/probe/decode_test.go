package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KexinAnswer/gitbook/internal/images"
)

func TestDecode(t *testing.T) {
	size, err := Decode(pngBytes(t, 12, 34))
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(12, 34), *size)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// Truncated PNG header
	_, err = Decode(pngBytes(t, 12, 34)[:10])
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeRasterWithSVGMetadata(t *testing.T) {
	data := append(pngBytes(t, 12, 34), []byte(`<x:xmpmeta><svg width="1" height="1"/></x:xmpmeta>`)...)

	size, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(12, 34), *size)
}

func TestDecodeTextualSVG(t *testing.T) {
	// No XML prolog or namespace, so detection falls back to plain text.
	size, err := Decode([]byte(`  <svg width="20" height="10"></svg>`))
	require.NoError(t, err)
	assert.Equal(t, images.Dimensions(20, 10), *size)
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{" 64px ", 64, true},
		{"12.5", 12.5, true},
		{"100%", 0, false},
		{"2em", 0, false},
		{"0", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLength(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseViewBox(t *testing.T) {
	w, h, ok := parseViewBox("0 0 300 150")
	require.True(t, ok)
	assert.Equal(t, 300.0, w)
	assert.Equal(t, 150.0, h)

	_, _, ok = parseViewBox("0 0 300")
	assert.False(t, ok)
	_, _, ok = parseViewBox("0 0 -1 10")
	assert.False(t, ok)
}

func TestCountsAgainstBreaker(t *testing.T) {
	assert.False(t, countsAgainstBreaker(nil))
	assert.False(t, countsAgainstBreaker(&StatusError{Code: 404}))
	assert.False(t, countsAgainstBreaker(ErrUnsupportedFormat))
	assert.True(t, countsAgainstBreaker(&StatusError{Code: 502}))
	assert.True(t, countsAgainstBreaker(&StatusError{Code: 429}))
	assert.True(t, countsAgainstBreaker(assert.AnError))
}
