package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswerRelay(t *testing.T) {
	cmd := Parse("she said scaling the team is the hard part")
	assert.Equal(t, KindAnswer, cmd.Kind)
	assert.Equal(t, "she said scaling the team is the hard part", cmd.Summary)
	assert.Equal(t, 0, cmd.Priority)
}

func TestParseSimpleCommands(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"/intro", KindIntro},
		{"/start", KindStart},
		{"/next", KindNext},
		{"/prev", KindPrev},
		{"/example", KindExample},
		{"/qa", KindQA},
		{"/outro", KindOutro},
		{"/resume", KindResume},
		{"/skip", KindSkip},
		{"/status", KindStatus},
		{"/NEXT", KindNext}, // case-insensitive
		{"  /next  ", KindNext},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := Parse(tt.text)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.False(t, cmd.IsInterrupt())
		})
	}
}

func TestParseInterrupts(t *testing.T) {
	for _, text := range []string{"/pause", "/stop"} {
		cmd := Parse(text)
		assert.Equal(t, PriorityInterrupt, cmd.Priority, text)
		assert.True(t, cmd.IsInterrupt(), text)
	}
}

func TestParseGoto(t *testing.T) {
	cmd := Parse("/goto 5")
	assert.Equal(t, KindGoto, cmd.Kind)
	assert.Equal(t, 5, cmd.Slide)

	cmd = Parse("/goto abc")
	assert.Equal(t, KindError, cmd.Kind)
	assert.NotEmpty(t, cmd.Reason)

	cmd = Parse("/goto")
	assert.Equal(t, KindError, cmd.Kind)
}

func TestParsePick(t *testing.T) {
	cmd := Parse("/pick 3")
	assert.Equal(t, KindPick, cmd.Kind)
	assert.Equal(t, 3, cmd.QuestionID)

	cmd = Parse("/pick first")
	assert.Equal(t, KindError, cmd.Kind)
}

func TestParseAsk(t *testing.T) {
	cmd := Parse("/ask Maria: What challenges do you see?")
	assert.Equal(t, KindAsk, cmd.Kind)
	assert.Equal(t, "Maria", cmd.TargetName)
	assert.Equal(t, "What challenges do you see?", cmd.Question)

	// Bare name: question comes from the slide configuration later.
	cmd = Parse("/ask Maria")
	assert.Equal(t, KindAsk, cmd.Kind)
	assert.Equal(t, "Maria", cmd.TargetName)
	assert.Empty(t, cmd.Question)

	cmd = Parse("/ask")
	assert.Equal(t, KindError, cmd.Kind)

	cmd = Parse("/ask Maria what do you think")
	assert.Equal(t, KindError, cmd.Kind)
}

func TestParseUnknown(t *testing.T) {
	cmd := Parse("/fly")
	assert.Equal(t, KindUnknown, cmd.Kind)
	assert.Contains(t, cmd.Reason, "/fly")
}

func TestParseNeverPanics(t *testing.T) {
	for _, text := range []string{"", "/", "//", "/ ", "/goto 5 6", "   "} {
		assert.NotPanics(t, func() { Parse(text) }, "input %q", text)
	}
}

func TestParseKeepsRawText(t *testing.T) {
	cmd := Parse("  /goto 7 ")
	assert.Equal(t, "/goto 7", cmd.RawText)
	assert.False(t, cmd.Timestamp.IsZero())
}
