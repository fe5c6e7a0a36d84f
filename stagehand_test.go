package stagehand

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stagehand/presentation"
)

const testDeckYAML = `
presentation:
  title: Platform Update
  presenter_name: Alex
slides:
  - id: 0
    title: Cover
  - id: 1
    title: Welcome
    audio_file: intro.mp3
  - id: 2
    title: Agenda
    audio_file: agenda.mp3
  - id: 3
    title: Rollout
  - id: 4
    title: Wrap up
`

const testRosterYAML = `
audience:
  - name: Maria
    role: engineering lead
    question: How has the rollout felt?
`

func writeConfig(t *testing.T) (deckPath, rosterPath string) {
	t.Helper()
	dir := t.TempDir()
	deckPath = filepath.Join(dir, "deck.yaml")
	rosterPath = filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(deckPath, []byte(testDeckYAML), 0o644))
	require.NoError(t, os.WriteFile(rosterPath, []byte(testRosterYAML), 0o644))
	return deckPath, rosterPath
}

func TestNewLoadsConfiguration(t *testing.T) {
	deckPath, rosterPath := writeConfig(t)

	sh, err := New(func(o *Options) {
		o.DeckPath = deckPath
		o.RosterPath = rosterPath
	})
	require.NoError(t, err)

	assert.Equal(t, "Platform Update", sh.Deck().Presentation.Title)
	assert.Equal(t, 5, sh.Deck().TotalSlides())

	res := sh.SubmitText(context.Background(), "/start")
	assert.Equal(t, presentation.StatePresenting, res.State)
	assert.Equal(t, 2, res.Slide)
	assert.Equal(t, presentation.StatePresenting, sh.Status().Snapshot.State)
}

func TestNewRequiresDeck(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestNewRejectsBrokenDeck(t *testing.T) {
	dir := t.TempDir()
	deckPath := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(deckPath, []byte("slides: []"), 0o644))

	_, err := New(func(o *Options) { o.DeckPath = deckPath })
	assert.ErrorContains(t, err, "no slides")
}
