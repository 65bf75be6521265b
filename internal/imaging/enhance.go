package imaging

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/disintegration/gift"
)

// Enhance runs the readability pipeline over a page image: downscale to fit
// maxDim, grayscale, median denoise, contrast boost, and unsharp masking to
// crisp up text for the model.
func Enhance(src image.Image, maxDim int) image.Image {
	filters := []gift.Filter{}
	b := src.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		filters = append(filters, gift.ResizeToFit(maxDim, maxDim, gift.LanczosResampling))
	}
	filters = append(filters,
		gift.Grayscale(),
		gift.Median(3, true),
		gift.Contrast(20),
		gift.UnsharpMask(1.0, 1.5, 0.05),
	)

	g := gift.New(filters...)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
