package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const normalizedContentType = "image/jpeg"

var (
	ErrEmptyImage    = errors.New("empty image data")
	ErrImageTooLarge = errors.New("image exceeds size limit")
	ErrTooManyPixels = errors.New("image dimensions exceed pixel budget")
)

// Normalizer bounds, decodes and re-encodes profile images so every
// stored asset is a JPEG no larger than MaxWidth x MaxHeight.
type Normalizer struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
	// MaxPixels caps width*height as declared by the image header, checked
	// before any pixel buffer is allocated.
	MaxPixels int64
	Quality   int
}

func DefaultNormalizer() Normalizer {
	return Normalizer{MaxBytes: 5 << 20, MaxWidth: 500, MaxHeight: 500, MaxPixels: 40_000_000, Quality: 85}
}

func (n Normalizer) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if n.MaxBytes > 0 && int64(len(data)) > n.MaxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrImageTooLarge, len(data), n.MaxBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	if n.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > n.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooManyPixels, cfg.Width, cfg.Height, n.MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), n.MaxWidth, n.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	quality := n.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return out.Bytes(), nil
}

// fitWithin scales (w, h) down to fit the box, keeping the aspect ratio.
// It never upscales; a zero bound means unbounded.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale == 1.0 {
		return w, h
	}
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return nw, nh
}
