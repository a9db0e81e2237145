package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestThumbnail_Dimensions(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"wide image clamps to width", 600, 300, 300, 300, 300, 150},
		{"tall image clamps to height", 300, 600, 300, 300, 150, 300},
		{"square scales evenly", 600, 600, 300, 300, 300, 300},
		{"already small keeps size", 100, 80, 300, 300, 100, 80},
		{"extreme aspect stays within box", 1200, 100, 300, 300, 300, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Thumbnail(encodePNG(t, tt.srcW, tt.srcH), tt.maxW, tt.maxH)
			if err != nil {
				t.Fatalf("Thumbnail() error = %v", err)
			}
			w, h := decodeSize(t, out)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("thumbnail size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnail_OutputIsJPEG(t *testing.T) {
	out, err := Thumbnail(encodePNG(t, 64, 64), DefaultMaxWidth, DefaultMaxHeight)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("output is not decodable JPEG: %v", err)
	}
}

func TestThumbnail_AcceptsJPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	out, err := Thumbnail(buf.Bytes(), 32, 32)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if w, h := decodeSize(t, out); w != 32 || h != 16 {
		t.Errorf("thumbnail size = %dx%d, want 32x16", w, h)
	}
}

func TestThumbnail_Errors(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		maxW, maxH int
	}{
		{"garbage input", []byte("definitely not an image"), 300, 300},
		{"empty input", nil, 300, 300},
		{"zero width bound", nil, 0, 300},
		{"negative height bound", nil, 300, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Thumbnail(tt.data, tt.maxW, tt.maxH); err == nil {
				t.Error("Thumbnail() error = nil, want error")
			}
		})
	}
}
