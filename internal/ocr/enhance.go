package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// maxEnhanceDim bounds the long edge fed to the recognizer.
const maxEnhanceDim = 3200

// Enhance prepares a photographed ticket for recognition and re-encodes it as PNG.
func Enhance(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	b := img.Bounds()
	if b.Dx() > maxEnhanceDim || b.Dy() > maxEnhanceDim {
		img = imaging.Fit(img, maxEnhanceDim, maxEnhanceDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
