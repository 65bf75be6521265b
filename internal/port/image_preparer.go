package port

import (
	"context"

	"medibill/internal/domain"
)

// ImagePreparer converts a fetched document into an ordered sequence of
// enhanced page images ready for model extraction and local analysis.
type ImagePreparer interface {
	Prepare(ctx context.Context, data []byte, contentType string) ([]domain.PageImage, error)
}
