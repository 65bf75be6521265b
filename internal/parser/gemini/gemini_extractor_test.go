package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibill/internal/config"
	"medibill/internal/domain"
	"medibill/internal/parser"
)

func testProviderConfig() *config.ParserProviderConfig {
	return &config.ParserProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-key",
		DefaultModel: "gemini-2.5-flash",
		TimeoutSecs:  5,
	}
}

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     1200,
			"candidatesTokenCount": 300,
			"totalTokenCount":      1500,
		},
	}
}

func TestExtract_SendsImagesAndPrompt(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(geminiReply(`{"pagewise_line_items":[]}`))
	}))
	defer srv.Close()

	e := NewExtractorWithEndpoint(testProviderConfig(), srv.URL)
	pages := []domain.PageImage{
		{PageNo: 1, JPEG: []byte("page-one")},
		{PageNo: 2, JPEG: []byte("page-two")},
	}

	out, err := e.Extract(context.Background(), pages, "extract the bill")
	require.NoError(t, err)
	assert.Equal(t, `{"pagewise_line_items":[]}`, out.Text)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
	assert.Equal(t, 1500, out.Usage.TotalTokens)
	assert.Equal(t, 1200, out.Usage.InputTokens)
	assert.Equal(t, 300, out.Usage.OutputTokens)

	contents := captured["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 3)

	first := parts[0].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", first["mime_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("page-one")), first["data"])

	last := parts[2].(map[string]any)
	assert.Equal(t, "extract the bill", last["text"])

	genCfg := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.Equal(t, float64(0), genCfg["temperature"])
}

func TestExtract_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "quota exceeded"}`))
	}))
	defer srv.Close()

	e := NewExtractorWithEndpoint(testProviderConfig(), srv.URL)
	_, err := e.Extract(context.Background(), nil, "prompt")
	require.Error(t, err)

	var rlErr *parser.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, float64(42), rlErr.RetryAfter.Seconds())
}

func TestExtract_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	e := NewExtractorWithEndpoint(testProviderConfig(), srv.URL)
	_, err := e.Extract(context.Background(), nil, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestExtract_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	e := NewExtractorWithEndpoint(testProviderConfig(), srv.URL)
	_, err := e.Extract(context.Background(), nil, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestExtract_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply("{}"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractorWithEndpoint(testProviderConfig(), srv.URL)
	_, err := e.Extract(ctx, nil, "prompt")
	assert.Error(t, err)
}

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(&config.ParserProviderConfig{Provider: "gemini", APIKey: "k"})
	assert.Equal(t, "gemini-2.5-flash", e.model)
	assert.Contains(t, e.endpoint, "gemini-2.5-flash:generateContent")
}
