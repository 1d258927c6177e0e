package preview

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const previewJPEGQuality = 80

// scaleJPEG downscales a JPEG to at most maxWidth pixels wide. The input
// is returned unchanged when it is already narrow enough or when it cannot
// be decoded.
func scaleJPEG(data []byte, maxWidth int) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	if img.Bounds().Dx() <= maxWidth {
		return data
	}

	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(previewJPEGQuality)); err != nil {
		return data
	}
	return buf.Bytes()
}
