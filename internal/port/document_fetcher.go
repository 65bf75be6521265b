package port

import (
	"context"

	"medibill/internal/domain"
)

// DocumentFetcher retrieves a document's bytes from a remote URL.
// Retries and failure classification are the implementation's responsibility;
// callers only consume the final result.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.FetchedDocument, error)
}
