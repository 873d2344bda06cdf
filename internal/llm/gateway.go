// Package llm is the single point through which the backend talks to the
// hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"shareaplate_backend/internal/config"
)

var (
	// ErrUpstream wraps every failure of the hosted model.
	ErrUpstream = errors.New("language model request failed")
	// ErrTimeout is additionally wrapped when the call exceeded its deadline.
	ErrTimeout = errors.New("language model request timed out")
)

// Request is one prompt/response round trip.
type Request struct {
	Prompt string
	Model  string
	// JSON asks the model for an application/json reply.
	JSON bool
	// Metadata is attached to the call log (strategy, listing id, prompt version).
	Metadata map[string]string
}

// Gateway returns the model's raw text for a prompt.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// contentGenerator is the part of the genai client the gateway uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements Gateway over the Gemini API.
type GeminiClient struct {
	models       contentGenerator
	defaultModel string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewGeminiClient creates the genai client from configuration.
func NewGeminiClient(cfg *config.Config, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiClient(client.Models, cfg.GeminiMatchModel, cfg.LLMTimeout, logger), nil
}

func newGeminiClient(models contentGenerator, defaultModel string, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		models:       models,
		defaultModel: defaultModel,
		timeout:      timeout,
		logger:       logger.Named("llm"),
	}
}

// Generate sends one single-turn prompt. The call is bounded by the configured
// timeout; no retries are attempted.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var genCfg *genai.GenerateContentConfig
	if req.JSON {
		genCfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	fields := []zap.Field{zap.String("model", model), zap.Int("prompt_chars", len(req.Prompt))}
	for k, v := range req.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, genCfg)
	fields = append(fields, zap.Duration("latency", time.Since(start)))

	if err != nil {
		c.logger.Error("Language model call failed", append(fields, zap.Error(err))...)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w: %v", ErrUpstream, ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		c.logger.Warn("Language model returned no text", fields...)
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}

	c.logger.Info("Language model call completed", append(fields, zap.Int("response_chars", len(text)))...)
	return text, nil
}
