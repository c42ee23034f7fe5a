package fetch

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // decoders for wizard-supplied rasters
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// FetchImage retrieves ref and normalizes it to a PNG whose longest side is
// at most maxDim pixels. Downscaling is uniform; smaller images are kept at
// their native size. Returns nil when the reference is absent, unreachable,
// or not a decodable PNG/JPEG/GIF.
func (f *Fetcher) FetchImage(ctx context.Context, ref string, maxDim int) []byte {
	data := f.Fetch(ctx, ref)
	if data == nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		f.log.Debug("image decode failed", "err", err)
		return nil
	}
	img = boundImage(img, maxDim)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// boundImage scales img down so that max(width, height) <= maxDim,
// preserving aspect ratio. Images already within bounds pass through.
func boundImage(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
