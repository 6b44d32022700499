package images

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const darkURL = "https://example.com/cover-dark.png"

func TestPictureLightAndDark(t *testing.T) {
	r, records, _ := newTestResolver(NewFlag(true), nil)

	pic, err := r.Picture(context.Background(), Sources{
		Light: Source{URL: testURL, Size: sizePtr(Dimensions(1200, 600))},
		Dark:  &Source{URL: darkURL},
	}, PictureOptions{
		Breakpoints: []Breakpoint{{Width: 1248}},
		Priority:    PriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, PriorityHigh, pic.Light.Priority)
	assert.Equal(t, "high", pic.Light.FetchPriority())
	assert.Empty(t, pic.Light.Loading())
	assert.Equal(t, 1200, pic.Light.Width)

	require.NotNil(t, pic.Dark)
	assert.Equal(t, PriorityLazy, pic.Dark.Priority)
	assert.Equal(t, "lazy", pic.Dark.Loading())
	assert.Equal(t, "low", pic.Dark.FetchPriority())
	assert.Contains(t, pic.Dark.SourceURL, darkURL)

	require.Len(t, pic.Preloads, 1)
	assert.Equal(t, pic.Light.SourceURL, pic.Preloads[0].Href)
	assert.Equal(t, pic.Light.SourceSet, pic.Preloads[0].SrcSet)
	assert.Equal(t, "1248px", pic.Preloads[0].Sizes)
	assert.Equal(t, "high", pic.Preloads[0].FetchPriority)

	assert.Len(t, records.all(), 2)
}

func TestPicturePriorities(t *testing.T) {
	tests := []struct {
		name        string
		opts        PictureOptions
		wantLoading string
		wantFetch   string
		wantPreload string
	}{
		{
			name: "normal",
			opts: PictureOptions{},
		},
		{
			name:        "lazy",
			opts:        PictureOptions{Priority: PriorityLazy},
			wantLoading: "lazy",
			wantFetch:   "low",
		},
		{
			name:        "forced preload",
			opts:        PictureOptions{Priority: PriorityLazy, Preload: true},
			wantLoading: "lazy",
			wantFetch:   "low",
			wantPreload: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestResolver(NewFlag(true), nil)

			pic, err := r.Picture(context.Background(), Sources{Light: Source{URL: testURL}}, tt.opts)
			require.NoError(t, err)

			assert.Nil(t, pic.Dark)
			assert.Equal(t, tt.wantLoading, pic.Light.Loading())
			assert.Equal(t, tt.wantFetch, pic.Light.FetchPriority())
			if tt.wantPreload == "" {
				assert.Empty(t, pic.Preloads)
			} else {
				require.Len(t, pic.Preloads, 1)
				assert.Equal(t, tt.wantPreload, pic.Preloads[0].FetchPriority)
			}
		})
	}
}

func TestPictureNoResize(t *testing.T) {
	r, _, _ := newTestResolver(NewFlag(true), nil)

	pic, err := r.Picture(context.Background(), Sources{Light: Source{URL: testURL}}, PictureOptions{
		Breakpoints: []Breakpoint{{Width: 1248}},
		NoResize:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, testURL, pic.Light.SourceURL)
	assert.Empty(t, pic.Light.SourceSet)
}

func TestPictureErrors(t *testing.T) {
	r, _, _ := newTestResolver(NewFlag(true), nil)

	_, err := r.Picture(context.Background(), Sources{Light: Source{URL: testURL}}, PictureOptions{Priority: "urgent"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.Picture(context.Background(), Sources{
		Light: Source{URL: testURL},
		Dark:  &Source{URL: darkURL, Size: &Size{}},
	}, PictureOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	boom := errors.New("builder down")
	failing := NewResolver(ResolverConfig{}, WithURLBuilder(func(string) (URLFunc, error) { return nil, boom }))
	_, err = failing.Picture(context.Background(), Sources{Light: Source{URL: testURL}}, PictureOptions{
		Breakpoints: []Breakpoint{{Width: 640}},
	})
	assert.True(t, err == boom)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	p, err = ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("eager")
	assert.ErrorIs(t, err, ErrValidation)
}
