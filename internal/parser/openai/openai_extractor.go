package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"medibill/internal/config"
	"medibill/internal/domain"
	"medibill/internal/parser"
)

// Extractor implements port.BillExtractor using OpenAI's vision-capable
// chat completion API via the go-openai client.
type Extractor struct {
	client *openai.Client
	model  string
}

// NewExtractor creates an OpenAI-based bill extractor.
func NewExtractor(cfg *config.ParserProviderConfig) *Extractor {
	return NewExtractorWithBaseURL(cfg, "")
}

// NewExtractorWithBaseURL creates an extractor pointing at a custom API base URL (for testing).
func NewExtractorWithBaseURL(cfg *config.ParserProviderConfig, baseURL string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (e *Extractor) Extract(ctx context.Context, pages []domain.PageImage, prompt string) (*domain.RawExtraction, error) {
	content := make([]openai.ChatMessagePart, 0, len(pages)+1)
	content = append(content, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})
	for _, page := range pages {
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(page.JPEG),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: content,
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, parser.NewRateLimitError("openai", err, 0)
		}
		return nil, fmt.Errorf("calling openai API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	return &domain.RawExtraction{
		Text:  resp.Choices[0].Message.Content,
		Model: e.model,
		Usage: domain.TokenUsage{
			TotalTokens:  resp.Usage.TotalTokens,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
