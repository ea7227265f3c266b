package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahrt/portfolio/internal/domain"
)

type recordingGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func newTestPipeline(gen Generator, clock *fakeClock, opts ...PipelineOption) *Pipeline {
	return NewPipeline(
		NewRateLimiter(4*time.Second, clock),
		NewResponseCache(DefaultCacheTTL, clock),
		NewFormatter("Albert"),
		NewInferenceClient(gen, DefaultInferenceConfig(), clock, nil),
		clock,
		nil,
		opts...,
	)
}

func TestPipelineAlbertScenario(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{reply: "</s>Assistant: Jonathan built a portfolio site and a spam classifier. [/INST]"}
	p := newTestPipeline(gen, clock)
	conv := []domain.Message{
		{Role: domain.RoleSystem, Content: "You are Albert"},
		{Role: domain.RoleUser, Content: "What projects has Jonathan built?"},
	}

	got, err := p.Respond(context.Background(), conv, nil)

	require.NoError(t, err)
	assert.Equal(t, "Jonathan built a portfolio site and a spam classifier.", got)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t,
		"<s>[INST] System: You are Albert [/INST]</s>\n\n"+
			"<s>[INST]\n"+
			"Respond directly to the user's most recent query.\n\n"+
			"Conversation history:\n"+
			"User: What projects has Jonathan built?\n\n"+
			"[/INST] ",
		gen.prompts[0])
}

func TestPipelineServesRepeatFromCache(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{reply: "Hello visitor"}
	p := newTestPipeline(gen, clock)
	conv := userConv("hello")

	_, err := p.Respond(context.Background(), conv, nil)
	require.NoError(t, err)

	var partials []string
	got, err := p.Respond(context.Background(), conv, func(s string) { partials = append(partials, s) })
	require.NoError(t, err)

	assert.Equal(t, "Hello visitor", got)
	assert.Len(t, gen.prompts, 1, "second answer comes from the cache")
	assert.Equal(t, []string{"I'm thinking... (Please wait a moment)", "Hello", "Hello visitor"}, partials)
	assert.Equal(t, []time.Duration{4 * time.Second, 10 * time.Millisecond}, clock.Sleeps())
}

func TestPipelineCacheHitKeepsLayout(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{reply: "line one\n\nline two"}
	p := newTestPipeline(gen, clock)
	conv := userConv("hello")

	_, err := p.Respond(context.Background(), conv, nil)
	require.NoError(t, err)

	var partials []string
	got, err := p.Respond(context.Background(), conv, func(s string) { partials = append(partials, s) })
	require.NoError(t, err)

	require.NotEmpty(t, partials)
	assert.Equal(t, got, partials[len(partials)-1])
	assert.Equal(t, "line one\n\nline", partials[len(partials)-2])
}

func TestPipelineUsesSystemPromptOption(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{reply: "ok"}
	p := newTestPipeline(gen, clock, WithSystemPrompt(func(context.Context) string { return "Portfolio context" }))

	_, err := p.Respond(context.Background(), userConv("hi"), nil)

	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "System: Portfolio context")
}

func TestPipelineFailureIsNotCached(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{err: errors.New("status 503")}
	p := newTestPipeline(gen, clock)

	got, err := p.Respond(context.Background(), userConv("hi"), nil)

	assert.Equal(t, GenericApology, got)
	var ierr *InferenceError
	assert.ErrorAs(t, err, &ierr)
	assert.Equal(t, 0, p.cache.Len())
}

func TestPipelineCancelledDuringCooldown(t *testing.T) {
	clock := newFakeClock()
	gen := &recordingGenerator{reply: "ok"}
	p := newTestPipeline(gen, clock)
	_, err := p.Respond(context.Background(), userConv("one"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Respond(ctx, userConv("two"), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.prompts, 1)
}

func TestBuildSystemPrompt(t *testing.T) {
	link := "https://example.com"
	got := BuildSystemPrompt([]domain.Project{{
		Title:        "Spam Classifier",
		Description:  "Naive Bayes",
		Technologies: []string{"Python", "scikit-learn"},
		Category:     domain.CategoryOther,
		Link:         &link,
	}})

	assert.Contains(t, got, "- Contact (/contact): Contact form for reaching out")
	assert.Contains(t, got, "Project: Spam Classifier\n")
	assert.Contains(t, got, "Technologies: Python, scikit-learn\n")
	assert.Contains(t, got, "Links: Demo: https://example.com\n")
	assert.NotContains(t, BuildSystemPrompt(nil), "Here are the projects")
}
