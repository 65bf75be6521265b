package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medibill/internal/domain"
	"medibill/internal/parser"
	"medibill/internal/port"
	"medibill/internal/reconcile"
)

// ExtractionService defines the bill extraction contract.
type ExtractionService interface {
	// ExtractBillData runs the full pipeline for one document URL. The
	// returned envelope is always non-nil; err carries the failure class
	// for HTTP status mapping and is nil on success.
	ExtractBillData(ctx context.Context, documentURL string) (*domain.ResponseEnvelope, error)
}

type extractionService struct {
	fetcher      port.DocumentFetcher
	preparer     port.ImagePreparer
	scanner      port.FraudScanner
	extractor    port.BillExtractor
	reconciler   *reconcile.Reconciler
	modelTimeout time.Duration
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(
	fetcher port.DocumentFetcher,
	preparer port.ImagePreparer,
	scanner port.FraudScanner,
	extractor port.BillExtractor,
	reconciler *reconcile.Reconciler,
	modelTimeout time.Duration,
) ExtractionService {
	if modelTimeout == 0 {
		modelTimeout = 30 * time.Second
	}
	return &extractionService{
		fetcher:      fetcher,
		preparer:     preparer,
		scanner:      scanner,
		extractor:    extractor,
		reconciler:   reconciler,
		modelTimeout: modelTimeout,
	}
}

func (s *extractionService) ExtractBillData(ctx context.Context, documentURL string) (*domain.ResponseEnvelope, error) {
	start := time.Now()

	doc, err := s.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		err = s.classifyCtx(ctx, err)
		return domain.NewFailureEnvelope(err, domain.TokenUsage{}, nil), err
	}

	pages, err := s.preparer.Prepare(ctx, doc.Bytes, doc.ContentType)
	if err != nil {
		err = s.classifyCtx(ctx, err)
		return domain.NewFailureEnvelope(err, domain.TokenUsage{}, nil), err
	}

	// Fraud scanning is advisory and pixel-bound, so it runs concurrently
	// with the model call. It never fails the request.
	fraudCh := make(chan domain.FraudReport, 1)
	go func() {
		fraudCh <- s.scanner.Scan(pages)
	}()

	modelCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	raw, err := s.extractor.Extract(modelCtx, pages, parser.BuildBillExtractionPrompt())
	if err != nil {
		fraud := <-fraudCh
		err = s.classifyModelErr(ctx, err)
		return domain.NewFailureEnvelope(err, domain.TokenUsage{}, &fraud), err
	}

	fraud := <-fraudCh

	data, err := s.reconciler.Process(raw.Text)
	if err != nil {
		// Tokens were spent even though the output was unusable.
		return domain.NewFailureEnvelope(err, raw.Usage, &fraud), err
	}

	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		return domain.NewFailureEnvelope(err, raw.Usage, &fraud), err
	}

	log.Printf("service.ExtractionService: extracted %d items from %d pages (model %s, %d tokens) in %s",
		data.TotalItemCount, len(pages), raw.Model, raw.Usage.TotalTokens, time.Since(start).Round(time.Millisecond))

	return domain.NewSuccessEnvelope(data, raw.Usage, &fraud), nil
}

// classifyCtx maps context expiry onto the cancellation sentinel; other
// errors pass through with their own classification.
func (s *extractionService) classifyCtx(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, domain.ErrFetchTimeout) {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return err
}

// classifyModelErr wraps extractor failures in the model-failure sentinel
// unless the caller's own context expired first.
func (s *extractionService) classifyModelErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrModelFailure, err)
}
