package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// EncodeJPEG encodes an image to JPEG bytes at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBounds reads the JPEG header and reports the frame dimensions
// without decoding pixel data.
func DecodeBounds(data []byte) (width, height int, err error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("camera: decode jpeg header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// TestFrame renders a synthetic gradient frame as JPEG bytes.
// Used by the mock device and in tests that need a decodable frame.
func TestFrame(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 128,
				A: 255,
			})
		}
	}

	data, err := EncodeJPEG(img, DefaultConfig().Quality)
	if err != nil {
		// jpeg.Encode on an in-memory RGBA cannot fail
		panic(err)
	}
	return data
}
