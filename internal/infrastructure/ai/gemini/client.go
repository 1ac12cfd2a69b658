// Package gemini provides the Google Gemini text generator
package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ProviderName identifies this provider in errors, metrics and recipe sources
const ProviderName = "gemini"

const defaultModel = "gemini-1.5-flash"

// Config configures the client
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client implements outbound.TextGenerator on top of the Gemini SDK
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *zap.Logger
}

var _ outbound.TextGenerator = (*Client)(nil)

// NewClient creates a Gemini client. Extra options are passed to the SDK.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	return &Client{
		client: client,
		model:  model,
		name:   cfg.Model,
		logger: logger.Named("gemini"),
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string { return ProviderName }

// Generate sends the prompt and concatenates the text parts of the first candidate
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", permanent(fmt.Errorf("no content generated"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", permanent(fmt.Errorf("generated content is not text"))
	}

	if resp.UsageMetadata != nil {
		c.logger.Info("Gemini call successful",
			zap.String("model", c.name),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Int32("total_tokens", resp.UsageMetadata.TotalTokenCount),
		)
	}

	return b.String(), nil
}

// Close closes the underlying SDK client
func (c *Client) Close() error {
	return c.client.Close()
}

// classify maps SDK errors onto provider error kinds
func classify(err error) error {
	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) {
		return &outbound.ProviderError{
			Provider:   ProviderName,
			Kind:       outbound.ClassifyStatus(gerr.Code),
			StatusCode: gerr.Code,
			Err:        err,
		}
	}

	var blocked *genai.BlockedError
	if stderrors.As(err, &blocked) {
		return permanent(err)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return permanent(err)
	}

	// Network failures carry no status
	return &outbound.ProviderError{Provider: ProviderName, Kind: outbound.ProviderTransient, Err: err}
}

func permanent(err error) error {
	return &outbound.ProviderError{Provider: ProviderName, Kind: outbound.ProviderPermanent, Err: err}
}
