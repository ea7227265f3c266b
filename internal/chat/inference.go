package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"
)

// Generator produces raw model text for a formatted prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// PartialFunc receives progressively longer prefixes of a response.
type PartialFunc func(text string)

// InferenceConfig tunes retries and the reveal effect.
type InferenceConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	WordDelay   time.Duration
	Persona     string
}

// DefaultInferenceConfig matches the production schedule: 3 attempts, 1s/2s/4s backoff.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		WordDelay:   15 * time.Millisecond,
		Persona:     defaultPersona,
	}
}

// InferenceClient calls a Generator with rate-limit retries and sanitizes the output.
type InferenceClient struct {
	gen    Generator
	cfg    InferenceConfig
	clean  Sanitizer
	clock  Clock
	logger *slog.Logger
}

// NewInferenceClient wraps gen. A nil clock uses the wall clock.
func NewInferenceClient(gen Generator, cfg InferenceConfig, clock Clock, logger *slog.Logger) *InferenceClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InferenceClient{
		gen:    gen,
		cfg:    cfg,
		clean:  NewSanitizer(cfg.Persona),
		clock:  clock,
		logger: logger,
	}
}

// Backoff returns the wait after the given zero-based failed attempt: base * 2^attempt.
func (c *InferenceClient) Backoff(attempt int) time.Duration {
	return c.cfg.BaseBackoff * time.Duration(1<<uint(attempt))
}

// Infer generates a response for prompt. When onPartial is set the finished
// text is revealed word by word through it before Infer returns.
//
// If every attempt fails, Infer returns the visitor-facing apology together
// with an *InferenceError.
func (c *InferenceClient) Infer(ctx context.Context, prompt string, onPartial PartialFunc) (string, error) {
	if c.gen == nil {
		ierr := &InferenceError{Err: ErrNotConfigured}
		return ierr.Apology(), ierr
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		attempts++
		raw, err := c.gen.Generate(ctx, prompt)
		if err == nil {
			text := c.clean.Clean(raw)
			if onPartial != nil {
				if err := c.Reveal(ctx, text, c.cfg.WordDelay, onPartial); err != nil {
					return text, err
				}
			}
			return text, nil
		}

		lastErr = err
		c.logger.Warn("Inference attempt failed",
			"attempt", attempt+1,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err,
		)

		if ctx.Err() != nil || !IsRateLimitError(err) {
			break
		}
		if attempt == c.cfg.MaxAttempts-1 {
			break
		}

		delay := c.Backoff(attempt)
		c.logger.Info("Rate limited, backing off", "delay", delay)
		if onPartial != nil {
			onPartial(fmt.Sprintf("I'm thinking... (Rate limit reached, retrying in %d seconds)", int(delay.Seconds())))
		}
		if err := c.clock.Sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	ierr := &InferenceError{
		Attempts:    attempts,
		RateLimited: IsRateLimitError(lastErr),
		Err:         lastErr,
	}
	c.logger.Error("Inference gave up", "attempts", attempts, "rate_limited", ierr.RateLimited, "error", lastErr)
	return ierr.Apology(), ierr
}

// Reveal calls onPartial with growing prefixes of text, one word at a time,
// pausing delay between words. The last prefix is text itself.
func (c *InferenceClient) Reveal(ctx context.Context, text string, delay time.Duration, onPartial PartialFunc) error {
	return reveal(ctx, c.clock, text, delay, onPartial)
}

func reveal(ctx context.Context, clock Clock, text string, delay time.Duration, onPartial PartialFunc) error {
	ends := wordEnds(text)
	for i, end := range ends {
		if i == len(ends)-1 {
			end = len(text)
		}
		onPartial(text[:end])
		if i < len(ends)-1 {
			if err := clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// wordEnds returns the byte offset just past each whitespace-delimited word.
func wordEnds(text string) []int {
	var ends []int
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inWord && space {
			ends = append(ends, i)
		}
		inWord = !space
	}
	if inWord {
		ends = append(ends, len(text))
	}
	return ends
}
