package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Box is a bounding box a thumbnail must fit in.
type Box struct {
	Width   int
	Height  int
	Quality int
}

var (
	// FeaturedBox sizes the lead article photo.
	FeaturedBox = Box{Width: 300, Height: 200, Quality: 90}
	// ThumbnailBox sizes grid thumbnails.
	ThumbnailBox = Box{Width: 120, Height: 80, Quality: 85}
)

// Thumbnail decodes data, shrinks it to fit box (aspect preserved, never
// upscaled) and re-encodes it as JPEG.
func Thumbnail(data []byte, box Box) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), box.Width, box.Height)

	resized := img
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		resized = dst
	}

	quality := box.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	if maxW > 0 && w > maxW {
		h = max(1, h*maxW/w)
		w = maxW
	}
	if maxH > 0 && h > maxH {
		w = max(1, w*maxH/h)
		h = maxH
	}
	return w, h
}
