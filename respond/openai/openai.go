// Package openai implements respond.Generator using the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/stagehand/respond"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI generator. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	Prompts             respond.PromptRenderer
}

// Generator wraps the OpenAI Chat Completions API behind respond.Generator.
type Generator struct {
	client *openai.Client
	opts   Options
}

// New creates a generator using the official client with ambient credentials.
func New(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a generator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4o,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

var _ respond.Generator = (*Generator)(nil)

// renderPrompt tolerates a missing renderer; the model then runs without a
// system prompt instead of panicking.
func (g *Generator) renderPrompt(key string, vars map[string]string) string {
	if g.opts.Prompts == nil {
		return ""
	}
	return g.opts.Prompts.Render(key, vars)
}

// AudienceResponse implements respond.Generator.
func (g *Generator) AudienceResponse(ctx context.Context, target, role, question, answerSummary string) (string, error) {
	system := g.renderPrompt(respond.PromptAudienceResponse, map[string]string{
		"target_name":    target,
		"target_role":    role,
		"question":       question,
		"answer_summary": answerSummary,
	})
	user := fmt.Sprintf("%s said: %s", target, answerSummary)
	return g.complete(ctx, system, user, g.opts.Temperature, g.opts.MaxCompletionTokens)
}

// QAAnswer implements respond.Generator.
func (g *Generator) QAAnswer(ctx context.Context, question string) (string, error) {
	system := g.renderPrompt(respond.PromptQAAnswer, map[string]string{
		"question": question,
	})
	return g.complete(ctx, system, question, g.opts.Temperature, g.opts.MaxCompletionTokens)
}

// FilterQuestion implements respond.Generator. Scoring runs at temperature
// zero and expects a small JSON object back.
func (g *Generator) FilterQuestion(ctx context.Context, question string) (respond.FilterResult, error) {
	system := g.renderPrompt(respond.PromptQuestionFilter, nil)
	text, err := g.complete(ctx, system, question, 0, 512)
	if err != nil {
		return respond.FilterResult{}, err
	}
	var result respond.FilterResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return respond.FilterResult{}, fmt.Errorf("parse filter result: %w", err)
	}
	return result, nil
}

func (g *Generator) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty content (finish_reason=%s)", resp.Choices[0].FinishReason)
	}
	return text, nil
}
