// Package ai wraps the generative model used for drafting job descriptions
// and auditing resumes. Calls go through a circuit breaker and a per-call
// timeout; the model itself is any langchaingo llms.Model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"jobBoard/internal/metrics"
)

var (
	// ErrUnavailable means no model is configured or the breaker is open.
	ErrUnavailable = errors.New("ai: service unavailable")
	// ErrMalformed means the model answered with something we could not parse.
	ErrMalformed = errors.New("ai: malformed model output")
	// ErrEmptyInput is returned before calling out when the required field is blank.
	ErrEmptyInput = errors.New("ai: required input is empty")
)

const (
	kindDraft = "draft"
	kindAudit = "resume_audit"

	maxResumeChars = 20000
)

// Client talks to the model.
type Client struct {
	model   llms.Model
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// New wraps an existing model. A nil model yields a client whose calls
// return ErrUnavailable.
func New(model llms.Model, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		model:   model,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				// caller cancellation and bad output say nothing about upstream health
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformed)
			},
		}),
	}
}

// NewGemini builds a client backed by Google Gemini. An empty apiKey
// returns a client that reports ErrUnavailable.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return New(nil, timeout), nil
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return New(llm, timeout), nil
}

// Configured reports whether a model is wired.
func (c *Client) Configured() bool {
	return c != nil && c.model != nil
}

func (c *Client) generate(ctx context.Context, kind, prompt string, opts ...llms.CallOption) (string, error) {
	if !c.Configured() {
		metrics.ObserveAICall(kind, ErrUnavailable)
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	})
	metrics.ObserveAICall(kind, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", fmt.Errorf("ai %s: %w", kind, err)
	}
	return out.(string), nil
}
