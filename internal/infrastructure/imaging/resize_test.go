package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{1080, 720, 300, 200, 300, 200},
		{1000, 1000, 300, 200, 200, 200},
		{400, 100, 120, 80, 120, 30},
		{100, 50, 300, 200, 100, 50},
		{50, 1000, 120, 80, 4, 80},
	}
	for _, tc := range cases {
		w, h := fit(tc.w, tc.h, tc.maxW, tc.maxH)
		assert.Equal(t, [2]int{tc.wantW, tc.wantH}, [2]int{w, h}, "fit(%d,%d,%d,%d)", tc.w, tc.h, tc.maxW, tc.maxH)
	}
}

func TestThumbnail(t *testing.T) {
	t.Parallel()

	out, err := Thumbnail(pngFixture(t, 600, 400), FeaturedBox)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	small, err := Thumbnail(pngFixture(t, 60, 40), ThumbnailBox)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width, "small images are not upscaled")
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Thumbnail(nil, ThumbnailBox)
	assert.Error(t, err)
	_, err = Thumbnail([]byte("not an image"), ThumbnailBox)
	assert.Error(t, err)
}
