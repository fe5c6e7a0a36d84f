package respond

import "context"

// FilterResult is the outcome of scoring a submitted audience question.
type FilterResult struct {
	// Score is 0-10; 6 and above is considered relevant.
	Score int `json:"score"`
	// Flag is non-empty when the question should be held for review.
	Flag string `json:"flag"`
	// Reason is a short human-readable justification.
	Reason string `json:"reason"`
}

// NeutralFilterResult is used when the filter itself is unavailable; the
// question lands in the pending list for a manual decision.
var NeutralFilterResult = FilterResult{Score: 5, Reason: "Filter unavailable, defaulting to neutral score."}

// Generator produces the presenter's spoken text. Implementations call an
// external model API and must honor the context.
type Generator interface {
	// AudienceResponse reacts to an audience member's answer. answerSummary
	// may be the example sentinel, in which case the prompt template asks
	// for a plausible invented answer.
	AudienceResponse(ctx context.Context, target, role, question, answerSummary string) (string, error)

	// QAAnswer answers an open Q&A question.
	QAAnswer(ctx context.Context, question string) (string, error)

	// FilterQuestion scores a submitted question for relevance.
	FilterQuestion(ctx context.Context, question string) (FilterResult, error)
}

// PromptRenderer supplies system prompt templates, rendered with per-call
// variables. Satisfied by config.Prompts.
type PromptRenderer interface {
	Render(key string, vars map[string]string) string
}

// Prompt template keys the adapters render.
const (
	PromptAudienceResponse = "audience_response"
	PromptQAAnswer         = "qa_answer"
	PromptQuestionFilter   = "question_filter"
)

// FallbackAudienceResponse is spoken when generation fails mid-presentation.
func FallbackAudienceResponse(target string) string {
	return "Thank you for sharing that, " + target + ". That's a great perspective."
}

// FallbackQAAnswer is spoken when Q&A answer generation fails.
const FallbackQAAnswer = "That's a great question. I'd recommend exploring the tools we discussed today to find the best fit for your needs."
