package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deckYAML = `
presentation:
  title: "AI Tools in Practice"
  presenter_name: "Dex"
  total_slides: 15
  intro_slide: 1
  start_slide: 2
  qa_slide: 12
  outro_slide: 14
slides:
  - id: 1
    title: "Welcome"
    narration: "Hello everyone."
    audio_file: "audio/slide_01.mp3"
  - id: 5
    title: "Team adoption"
    audio_file: "audio/slide_05.mp3"
    has_interaction: true
    interaction:
      target: "Maria"
      question: "What challenges do you see?"
      question_audio: "audio/question_05.mp3"
      fallback_response: "Adoption takes time and champions."
  - id: 14
    title: "Thanks"
    audio_file: "audio/slide_14.mp3"
`

func TestParseDeck(t *testing.T) {
	deck, err := ParseDeck([]byte(deckYAML))
	require.NoError(t, err)

	assert.Equal(t, 15, deck.TotalSlides())
	assert.Equal(t, 1, deck.IntroSlide())
	assert.Equal(t, 2, deck.StartSlide())
	assert.Equal(t, 12, deck.QASlide())
	assert.Equal(t, 14, deck.OutroSlide())

	assert.Equal(t, "slide_01.mp3", deck.NarrationAudio(1))
	assert.Empty(t, deck.NarrationAudio(3))
	assert.Equal(t, "question_05.mp3", deck.QuestionAudio(5))
	assert.Empty(t, deck.QuestionAudio(1))

	target, question, ok := deck.Interaction(5)
	require.True(t, ok)
	assert.Equal(t, "Maria", target)
	assert.Equal(t, "What challenges do you see?", question)

	_, _, ok = deck.Interaction(1)
	assert.False(t, ok)

	assert.Equal(t, "Adoption takes time and champions.", deck.FallbackResponse(5))
}

func TestParseDeckSegmentDefaults(t *testing.T) {
	deck, err := ParseDeck([]byte(`
slides:
  - id: 0
  - id: 1
  - id: 2
  - id: 3
  - id: 4
  - id: 5
  - id: 6
  - id: 7
  - id: 8
  - id: 9
`))
	require.NoError(t, err)
	assert.Equal(t, 10, deck.TotalSlides())
	assert.Equal(t, 1, deck.IntroSlide())
	assert.Equal(t, 2, deck.StartSlide())
	assert.Equal(t, 7, deck.QASlide())
	assert.Equal(t, 9, deck.OutroSlide())
}

func TestParseDeckRejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := ParseDeck([]byte("slides:\n  - id: 1\n  - id: 1\n"))
	assert.Error(t, err)

	_, err = ParseDeck([]byte("slides: []\n"))
	assert.Error(t, err)
}

func TestRoster(t *testing.T) {
	roster, err := ParseRoster([]byte(`
audience:
  - name: "Maria"
    role: "Engineering Manager"
    slide_interaction: 5
    question: "What challenges do you see?"
  - name: "Ben"
`))
	require.NoError(t, err)
	assert.Equal(t, 2, roster.Size())

	m, ok := roster.Lookup("maria")
	require.True(t, ok)
	assert.Equal(t, "Engineering Manager", m.Role)

	assert.Equal(t, "Engineering Manager", roster.Role("MARIA"))
	assert.Equal(t, DefaultRole, roster.Role("Ben"))
	assert.Equal(t, DefaultRole, roster.Role("nobody"))
}

func TestRosterRejectsNamelessMember(t *testing.T) {
	_, err := ParseRoster([]byte("audience:\n  - role: \"CTO\"\n"))
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	prompts, err := ParsePrompts([]byte(`
system_prompts:
  audience_response: "Respond to {target_name} ({target_role}) who said: {answer_summary}"
  qa_answer: "Answer: {question}"
  question_filter: "Score the question."
`))
	require.NoError(t, err)

	rendered := prompts.Render(PromptAudienceResponse, map[string]string{
		"target_name":    "Maria",
		"target_role":    "Engineering Manager",
		"answer_summary": "scaling is hard",
	})
	assert.Equal(t, "Respond to Maria (Engineering Manager) who said: scaling is hard", rendered)

	// Unknown markers survive so template typos are visible.
	assert.Contains(t, prompts.Render(PromptQAAnswer, map[string]string{"other": "x"}), "{question}")
}

func TestPromptsRequireAllKeys(t *testing.T) {
	_, err := ParsePrompts([]byte("system_prompts:\n  qa_answer: \"a\"\n"))
	assert.Error(t, err)
}
