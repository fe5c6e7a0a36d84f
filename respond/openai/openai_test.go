package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/stagehand/respond"
)

type stubPrompts struct {
	lastKey  string
	lastVars map[string]string
}

func (s *stubPrompts) Render(key string, vars map[string]string) string {
	s.lastKey = key
	s.lastVars = vars
	return "system for " + key
}

func TestRenderPromptWithoutTemplates(t *testing.T) {
	g := NewFromClient(nil)

	// No renderer configured: the call degrades to an empty system prompt.
	assert.Empty(t, g.renderPrompt(respond.PromptQAAnswer, nil))
	assert.Empty(t, g.renderPrompt(respond.PromptAudienceResponse, map[string]string{"target_name": "Maria"}))
}

func TestRenderPromptUsesConfiguredTemplates(t *testing.T) {
	prompts := &stubPrompts{}
	g := NewFromClient(nil, func(o *Options) { o.Prompts = prompts })

	got := g.renderPrompt(respond.PromptQuestionFilter, map[string]string{"question": "What does it cost?"})

	assert.Equal(t, "system for "+respond.PromptQuestionFilter, got)
	assert.Equal(t, respond.PromptQuestionFilter, prompts.lastKey)
	assert.Equal(t, "What does it cost?", prompts.lastVars["question"])
}

func TestDefaultOptions(t *testing.T) {
	g := NewFromClient(nil)

	assert.Equal(t, "gpt-4o", g.opts.Model)
	assert.InDelta(t, 0.7, g.opts.Temperature, 0.001)
	assert.EqualValues(t, 4096, g.opts.MaxCompletionTokens)
}
