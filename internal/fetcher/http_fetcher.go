package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medibill/internal/config"
	"medibill/internal/domain"
	"medibill/internal/port"
	"medibill/internal/retry"
)

// HTTPFetcher downloads documents over HTTP with bounded retries and
// classified failures.
type HTTPFetcher struct {
	client   *http.Client
	policy   retry.Policy
	maxBytes int64
}

var _ port.DocumentFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTPFetcher from config.
func NewHTTPFetcher(cfg *config.FetcherConfig) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
		policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Duration(cfg.BackoffInitialMS) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.BackoffMaxMS) * time.Millisecond,
		},
		maxBytes: cfg.MaxFileSizeMB * 1024 * 1024,
	}
}

// Fetch retrieves the document at rawURL. Not-found and auth failures are
// permanent; timeouts and 5xx responses are retried per the policy.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchedDocument, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", domain.ErrFetchNetwork, err)
	}

	var doc *domain.FetchedDocument
	err := f.policy.Do(ctx, func() error {
		d, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			log.Printf("fetcher.HTTPFetcher: attempt failed for %s: %v", rawURL, err)
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (*domain.FetchedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", domain.ErrFetchNetwork, err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to body read
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, retry.Permanent(domain.ErrFetchNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Azure blob SAS failures surface as 403 with an AuthenticationFailed
		// XML body; both classify the same way.
		return nil, retry.Permanent(domain.ErrFetchForbidden)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetchNetwork, resp.StatusCode)
	default:
		return nil, retry.Permanent(fmt.Errorf("%w: status %d", domain.ErrFetchNetwork, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrFetchNetwork, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, retry.Permanent(fmt.Errorf("%w: document exceeds %d bytes", domain.ErrFetchNetwork, f.maxBytes))
	}

	return &domain.FetchedDocument{
		Bytes:       body,
		ContentType: contentTypeOf(resp, body),
	}, nil
}

// contentTypeOf prefers the Content-Type header, falling back to magic-byte
// detection for servers that report application/octet-stream or nothing.
func contentTypeOf(resp *http.Response, body []byte) string {
	ct := resp.Header.Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(body)
	}
	return ct
}
