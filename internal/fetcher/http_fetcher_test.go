package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibill/internal/config"
	"medibill/internal/domain"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(&config.FetcherConfig{
		TimeoutSecs:      5,
		MaxAttempts:      3,
		BackoffInitialMS: 1,
		BackoffMaxMS:     5,
		MaxFileSizeMB:    1,
	})
}

func TestFetch_Success(t *testing.T) {
	payload := []byte("%PDF-1.4 fake pdf bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	doc, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, payload, doc.Bytes)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestFetch_ContentTypeFallsBackToDetection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("%PDF-1.7 something"))
	}))
	defer server.Close()

	doc, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestFetch_NotFoundIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFetchNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "404 must not be retried")
}

func TestFetch_ForbiddenIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AuthenticationFailed</Code></Error>`))
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFetchForbidden)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok eventually"))
	}))
	defer server.Close()

	doc, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, []byte("ok eventually"), doc.Bytes)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_ExhaustedRetriesClassifiedAsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFetchNetwork)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "not a url")

	assert.ErrorIs(t, err, domain.ErrFetchNetwork)
}

func TestFetch_OversizedDocumentRejected(t *testing.T) {
	big := make([]byte, 2*1024*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(big)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFetchNetwork)
	assert.Contains(t, err.Error(), "exceeds")
}
