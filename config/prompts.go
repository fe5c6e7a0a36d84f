package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt template keys expected in prompts.yaml.
const (
	PromptAudienceResponse = "audience_response"
	PromptQAAnswer         = "qa_answer"
	PromptQuestionFilter   = "question_filter"
)

// Prompts holds the system prompt templates for response generation.
// Templates use {placeholder} markers, e.g. {target_name} or {question}.
type Prompts struct {
	SystemPrompts map[string]string `yaml:"system_prompts"`
}

// LoadPrompts reads prompt templates from a YAML file.
func LoadPrompts(filename string) (*Prompts, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts builds prompt templates from raw YAML and checks the required
// keys are present and non-empty.
func ParsePrompts(data []byte) (*Prompts, error) {
	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for _, key := range []string{PromptAudienceResponse, PromptQAAnswer, PromptQuestionFilter} {
		if strings.TrimSpace(prompts.SystemPrompts[key]) == "" {
			return nil, fmt.Errorf("missing prompt: %s", key)
		}
	}
	return &prompts, nil
}

// Render fills a template's {placeholder} markers from vars. Unknown markers
// are left in place so a template typo shows up in the output instead of
// silently vanishing.
func (p *Prompts) Render(key string, vars map[string]string) string {
	template := p.SystemPrompts[key]
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
