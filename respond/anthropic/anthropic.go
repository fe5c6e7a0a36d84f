// Package anthropic implements respond.Generator using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/stagehand/respond"
)

// Options configure the Anthropic generator (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Prompts     respond.PromptRenderer
}

// Generator wraps the Anthropic Messages API behind respond.Generator.
type Generator struct {
	client *anthropic.Client
	opts   Options
}

// New creates a generator using the official client.
func New(optFns ...func(o *Options)) *Generator {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Generator{client: &client, opts: opts}
}

// NewFromClient creates a generator from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Generator {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
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
	return g.complete(ctx, system, user, g.opts.Temperature, g.opts.MaxTokens)
}

// QAAnswer implements respond.Generator.
func (g *Generator) QAAnswer(ctx context.Context, question string) (string, error) {
	system := g.renderPrompt(respond.PromptQAAnswer, map[string]string{
		"question": question,
	})
	return g.complete(ctx, system, question, g.opts.Temperature, g.opts.MaxTokens)
}

// FilterQuestion implements respond.Generator.
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
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("anthropic returned empty content (stop_reason=%s)", resp.StopReason)
	}
	return text, nil
}
