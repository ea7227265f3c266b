package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
)

// Responder answers a conversation, optionally streaming partial text.
type Responder interface {
	Respond(ctx context.Context, conv []domain.Message, onPartial PartialFunc) (string, error)
}

// Pipeline is the local inference path: cooldown gate, cache, then the model.
type Pipeline struct {
	limiter       *RateLimiter
	cache         *ResponseCache
	formatter     Formatter
	client        *InferenceClient
	clock         Clock
	system        func(ctx context.Context) string
	cacheRevealAt time.Duration
	logger        *slog.Logger
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithSystemPrompt supplies the system instruction for every request.
func WithSystemPrompt(fn func(ctx context.Context) string) PipelineOption {
	return func(p *Pipeline) { p.system = fn }
}

// WithCacheRevealDelay sets the per-word delay used when replaying a cached answer.
func WithCacheRevealDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.cacheRevealAt = d }
}

// NewPipeline wires the pipeline components together.
func NewPipeline(limiter *RateLimiter, cache *ResponseCache, formatter Formatter, client *InferenceClient, clock Clock, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		limiter:       limiter,
		cache:         cache,
		formatter:     formatter,
		client:        client,
		clock:         clock,
		cacheRevealAt: 10 * time.Millisecond,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Respond runs conv through the pipeline. Terminal inference failures return
// the apology text with an *InferenceError.
func (p *Pipeline) Respond(ctx context.Context, conv []domain.Message, onPartial PartialFunc) (string, error) {
	if p.limiter != nil {
		err := p.limiter.Acquire(ctx, func(wait time.Duration) {
			p.logger.Debug("Enforcing chat cooldown", "wait", wait, "cooldown", p.limiter.Cooldown())
			if onPartial != nil {
				onPartial("I'm thinking... (Please wait a moment)")
			}
		})
		if err != nil {
			return "", fmt.Errorf("wait for cooldown: %w", err)
		}
	}

	if p.cache != nil {
		if cached, ok := p.cache.Lookup(conv); ok {
			p.logger.Debug("Serving cached chat response")
			if onPartial != nil {
				if err := reveal(ctx, p.clock, cached, p.cacheRevealAt, onPartial); err != nil {
					return cached, err
				}
			}
			return cached, nil
		}
	}

	system := ""
	if p.system != nil {
		system = p.system(ctx)
	}
	prompt := p.formatter.Format(conv, system)

	text, err := p.client.Infer(ctx, prompt, onPartial)
	if err != nil {
		return text, err
	}
	if p.cache != nil && text != "" {
		p.cache.Store(conv, text)
	}
	return text, nil
}
