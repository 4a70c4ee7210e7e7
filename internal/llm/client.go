// Package llm wraps a single chat-completion endpoint with tool calling,
// bounded retry on rate-limit errors, and context-window budgeting.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ToolDecl describes a callable the model may invoke.
type ToolDecl struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a normalized function invocation issued by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

type Request struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	Tools           []ToolDecl
}

// Result is the normalized outcome of one generation. A non-empty Err marks
// a soft failure: Text carries an "Error: " string and callers must treat the
// response as having no usable recommendations.
type Result struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
	Err          string
}

// Generator performs a single generation attempt against the remote model.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// rateLimitSignatures classify a remote error as transient. Matching is
// case-insensitive substring search.
var rateLimitSignatures = []string{
	"429",
	"resource has been exhausted",
	"exceeded your rate limit",
	"rpm",
}

// Client retries a Generator on rate-limit errors and degrades every failure
// to a soft error result; it never returns a Go error to callers.
type Client struct {
	gen        Generator
	maxRetries int
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration)
	log        zerolog.Logger
}

func NewClient(gen Generator, maxRetries int, delay time.Duration, log zerolog.Logger) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		gen:        gen,
		maxRetries: maxRetries,
		delay:      delay,
		sleep:      sleepContext,
		log:        log.With().Str("component", "llm-client").Logger(),
	}
}

// GenerateWithTools runs the prompt with the given tool declarations.
// Rate-limited attempts are retried up to the configured maximum with a fixed
// delay between attempts; any other error fails immediately.
func (c *Client) GenerateWithTools(ctx context.Context, prompt string, tools []ToolDecl, temperature float64) Result {
	req := Request{Prompt: prompt, Temperature: temperature, Tools: tools}
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		res, err := c.gen.Generate(ctx, req)
		if err == nil {
			return res
		}
		msg := err.Error()
		c.log.Error().Int("attempt", attempt).Int("max_retries", c.maxRetries).Str("error", msg).Msg("generation attempt failed")
		if attempt < c.maxRetries && IsRateLimitError(msg) {
			c.sleep(ctx, c.delay)
			continue
		}
		return Result{Text: "Error: " + msg, Err: msg}
	}
	// Unreachable: the loop always returns on the final attempt.
	return Result{Text: "Error: retries exhausted", Err: "retries exhausted"}
}

func IsRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, sig := range rateLimitSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
