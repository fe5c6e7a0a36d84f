// Package respond defines the response-generation interface the engine uses
// to produce spoken replies: personalized responses to audience answers,
// answers to open Q&A questions, and relevance scoring for submitted
// questions. Concrete adapters for the OpenAI and Anthropic APIs live in the
// respond/openai and respond/anthropic subpackages.
package respond
