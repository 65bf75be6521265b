package port

import (
	"context"

	"medibill/internal/domain"
)

// BillExtractor abstracts the multimodal LLM call that reads page images
// and returns raw structured text plus token counters.
type BillExtractor interface {
	Extract(ctx context.Context, pages []domain.PageImage, prompt string) (*domain.RawExtraction, error)
}
