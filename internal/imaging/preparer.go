package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	_ "image/gif"
	_ "image/png"

	"github.com/gen2brain/go-fitz"

	"medibill/internal/config"
	"medibill/internal/domain"
)

// Preparer converts fetched documents into ordered, enhanced page images.
// It implements port.ImagePreparer.
type Preparer struct {
	cfg *config.ImagingConfig
}

// NewPreparer creates a Preparer from config.
func NewPreparer(cfg *config.ImagingConfig) *Preparer {
	return &Preparer{cfg: cfg}
}

// Prepare rasterizes PDFs page by page (or decodes a single image), applies
// the enhancement pipeline, and JPEG-encodes each page for the model call.
// Page order reflects source document order.
func (p *Preparer) Prepare(ctx context.Context, data []byte, contentType string) ([]domain.PageImage, error) {
	var (
		raw []image.Image
		err error
	)
	if isPDF(data, contentType) {
		raw, err = p.rasterizePDF(ctx, data)
	} else {
		raw, err = decodeSingleImage(data, contentType)
	}
	if err != nil {
		return nil, err
	}

	pages := make([]domain.PageImage, 0, len(raw))
	for i, img := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		enhanced := Enhance(img, p.cfg.MaxDimension)
		jpg, err := encodeJPEG(enhanced, p.cfg.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding page %d: %v", domain.ErrPreprocessingFailed, i+1, err)
		}
		pages = append(pages, domain.PageImage{
			PageNo: i + 1,
			Image:  enhanced,
			JPEG:   jpg,
		})
	}

	log.Printf("imaging.Preparer: prepared %d page(s) from %s document", len(pages), contentType)
	return pages, nil
}

func isPDF(data []byte, contentType string) bool {
	return contentType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF"))
}

func (p *Preparer) rasterizePDF(ctx context.Context, data []byte) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %v", domain.ErrPreprocessingFailed, err)
	}
	defer func() { _ = doc.Close() }()

	images := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(n, float64(p.cfg.PDFRenderDPI))
		if err != nil {
			return nil, fmt.Errorf("%w: rendering PDF page %d: %v", domain.ErrPreprocessingFailed, n+1, err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", domain.ErrPreprocessingFailed)
	}
	return images, nil
}

func decodeSingleImage(data []byte, contentType string) ([]image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, contentType)
		}
		return nil, fmt.Errorf("%w: decoding image: %v", domain.ErrPreprocessingFailed, err)
	}
	return []image.Image{img}, nil
}
