package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

// promptTemplate matches the request hint the product has always sent:
// a short story, nudged under 300 words. Length is not enforced on the
// response.
const promptTemplate = "Write a short fictional story about: %s. Keep it under 300 words."

// Generator is the Story Generation Gateway: one prompt in, prose out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings for the OpenAI-backed generator.
type Config struct {
	APIKey         string
	BaseURL        string // optional override for self-hosted gateways
	Model          string
	RequestTimeout time.Duration
}

type openAIGenerator struct {
	client  *openaigo.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIGenerator creates a Generator backed by an OpenAI-compatible
// chat completion endpoint.
func NewOpenAIGenerator(cfg Config, logger *zap.Logger) Generator {
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &openAIGenerator{
		client:  openaigo.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger.Named("Generator"),
	}
}

// Generate requests a story for the given prompt. Transport-level
// failures are retried exactly once; an empty completion is an error and
// is never retried.
func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", models.ErrEmptyPrompt
	}

	log := g.logger.With(zap.String("model", g.model))

	var text string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			generationRetriesTotal.Inc()
			log.Warn("Retrying generation request after transient failure", zap.Error(err))
		}
		text, err = g.complete(ctx, prompt)
		if err == nil || !isTransient(err) {
			break
		}
	}
	if err != nil {
		generationRequestsTotal.With(prometheus.Labels{"model": g.model, "status": "error"}).Inc()
		log.Error("Generation request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	if strings.TrimSpace(text) == "" {
		generationRequestsTotal.With(prometheus.Labels{"model": g.model, "status": "empty"}).Inc()
		log.Warn("Generation returned an empty completion")
		return "", models.ErrEmptyCompletion
	}

	generationRequestsTotal.With(prometheus.Labels{"model": g.model, "status": "success"}).Inc()
	return text, nil
}

func (g *openAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(reqCtx, openaigo.ChatCompletionRequest{
		Model: g.model,
		Messages: []openaigo.ChatCompletionMessage{
			{
				Role:    openaigo.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptTemplate, prompt),
			},
		},
	})
	generationRequestDuration.With(prometheus.Labels{"model": g.model}).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	generationCompletionTokens.With(prometheus.Labels{"model": g.model}).Observe(float64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// isTransient reports whether a completion error is worth one retry:
// timeouts and server-side failures, never client mistakes.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Raw transport errors (connection refused, reset) arrive unwrapped.
	return !errors.Is(err, context.Canceled)
}
