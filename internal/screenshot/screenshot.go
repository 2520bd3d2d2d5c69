package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

var ErrEmpty = errors.New("empty screenshot")

// Capturer is anything that can take a PNG screenshot of its current page.
type Capturer interface {
	Screenshot() ([]byte, error)
}

// Capture takes a full-page PNG and returns it base64 encoded.
func Capture(c Capturer) (string, error) {
	data, err := c.Screenshot()
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Compress decodes a base64 PNG, scales it down to fit maxWidth x maxHeight
// (zero means unbounded) and re-encodes it as base64 JPEG.
func Compress(b64 string, quality, maxWidth, maxHeight int) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) == 0 {
		return "", ErrEmpty
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	img := Fit(src, maxWidth, maxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Fit returns src scaled by min(maxW/w, maxH/h) when that factor is below 1.
// A zero bound does not constrain its axis.
func Fit(src image.Image, maxWidth, maxHeight int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	scale := 1.0
	if maxWidth > 0 {
		scale = min(scale, float64(maxWidth)/float64(w))
	}
	if maxHeight > 0 {
		scale = min(scale, float64(maxHeight)/float64(h))
	}
	if scale >= 1.0 {
		return src
	}

	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}
