// Package render produces derived images for gallery display.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

// Default thumbnail box and JPEG quality for gallery cards.
const (
	DefaultMaxWidth  = 300
	DefaultMaxHeight = 300
	jpegQuality      = 70
)

// Thumbnail scales an image down to fit within maxW x maxH, preserving
// aspect ratio, and encodes it as JPEG. Images already inside the box
// are re-encoded at their original size. PNG, JPEG and GIF inputs are
// accepted.
func Thumbnail(imageBytes []byte, maxW, maxH int) ([]byte, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("thumbnail: invalid bounds %dx%d", maxW, maxH)
	}

	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := fit(bounds.Dx(), bounds.Dy(), maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("thumbnail: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit computes the largest size within (maxW, maxH) that preserves the
// source aspect ratio: clamp to width first, then re-derive from height
// if that still overflows.
func fit(srcW, srcH, maxW, maxH int) (int, int) {
	aspect := float64(srcH) / float64(srcW)
	w := float64(min(srcW, maxW))
	h := w * aspect
	if h > float64(maxH) {
		h = float64(maxH)
		w = h / aspect
	}
	return max(1, int(w)), max(1, int(h))
}
