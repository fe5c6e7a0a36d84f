package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Meta carries deck-level settings. The segment slide indices are optional;
// unset values fall back to conventional positions in the deck.
type Meta struct {
	Title         string `yaml:"title"`
	PresenterName string `yaml:"presenter_name"`
	TotalSlides   int    `yaml:"total_slides"`
	IntroSlide    int    `yaml:"intro_slide"`
	StartSlide    int    `yaml:"start_slide"`
	QASlide       int    `yaml:"qa_slide"`
	OutroSlide    int    `yaml:"outro_slide"`
}

// Interaction is a scripted audience moment on a slide.
type Interaction struct {
	Target           string `yaml:"target"`
	Question         string `yaml:"question"`
	QuestionAudio    string `yaml:"question_audio"`
	FallbackResponse string `yaml:"fallback_response"`
}

// Slide is one deck entry.
type Slide struct {
	ID             int          `yaml:"id"`
	Title          string       `yaml:"title"`
	Narration      string       `yaml:"narration"`
	AudioFile      string       `yaml:"audio_file"`
	HasInteraction bool         `yaml:"has_interaction"`
	Interaction    *Interaction `yaml:"interaction"`
	Notes          string       `yaml:"notes"`
}

// Deck is the loaded presentation configuration. It satisfies the engine's
// deck interface.
type Deck struct {
	Presentation Meta    `yaml:"presentation"`
	Slides       []Slide `yaml:"slides"`

	byID map[int]*Slide
}

// LoadDeck reads and validates a presentation deck from a YAML file.
func LoadDeck(filename string) (*Deck, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return ParseDeck(data)
}

// ParseDeck builds a deck from raw YAML.
func ParseDeck(data []byte) (*Deck, error) {
	var deck Deck
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}
	if len(deck.Slides) == 0 {
		return nil, fmt.Errorf("deck has no slides")
	}

	deck.byID = make(map[int]*Slide, len(deck.Slides))
	for i := range deck.Slides {
		s := &deck.Slides[i]
		if _, dup := deck.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate slide id %d", s.ID)
		}
		deck.byID[s.ID] = s
	}

	if deck.Presentation.TotalSlides == 0 {
		deck.Presentation.TotalSlides = len(deck.Slides)
	}
	deck.applySegmentDefaults()
	return &deck, nil
}

// applySegmentDefaults fills unset segment indices with their conventional
// positions: intro on slide 1, content from slide 2, Q&A three from the end,
// outro on the last slide.
func (d *Deck) applySegmentDefaults() {
	total := d.Presentation.TotalSlides
	if d.Presentation.IntroSlide == 0 {
		d.Presentation.IntroSlide = 1
	}
	if d.Presentation.StartSlide == 0 {
		d.Presentation.StartSlide = 2
	}
	if d.Presentation.QASlide == 0 {
		d.Presentation.QASlide = max(total-3, 0)
	}
	if d.Presentation.OutroSlide == 0 {
		d.Presentation.OutroSlide = max(total-1, 0)
	}
}

// TotalSlides returns the deck size.
func (d *Deck) TotalSlides() int { return d.Presentation.TotalSlides }

// IntroSlide returns the introduction slide index.
func (d *Deck) IntroSlide() int { return d.Presentation.IntroSlide }

// StartSlide returns the first content slide index.
func (d *Deck) StartSlide() int { return d.Presentation.StartSlide }

// QASlide returns the Q&A segment slide index.
func (d *Deck) QASlide() int { return d.Presentation.QASlide }

// OutroSlide returns the closing slide index.
func (d *Deck) OutroSlide() int { return d.Presentation.OutroSlide }

// NarrationAudio returns the narration filename for a slide, reduced to its
// base name so the transport can serve it from a flat audio directory.
func (d *Deck) NarrationAudio(slide int) string {
	s, ok := d.byID[slide]
	if !ok || s.AudioFile == "" {
		return ""
	}
	return path.Base(s.AudioFile)
}

// QuestionAudio returns the pre-rendered question clip for a slide.
func (d *Deck) QuestionAudio(slide int) string {
	s, ok := d.byID[slide]
	if !ok || s.Interaction == nil || s.Interaction.QuestionAudio == "" {
		return ""
	}
	return path.Base(s.Interaction.QuestionAudio)
}

// Interaction returns the configured audience interaction for a slide.
func (d *Deck) Interaction(slide int) (target, question string, ok bool) {
	s, found := d.byID[slide]
	if !found || !s.HasInteraction || s.Interaction == nil {
		return "", "", false
	}
	return s.Interaction.Target, s.Interaction.Question, true
}

// FallbackResponse returns the scripted response for a slide's interaction,
// empty when none is configured.
func (d *Deck) FallbackResponse(slide int) string {
	s, ok := d.byID[slide]
	if !ok || s.Interaction == nil {
		return ""
	}
	return s.Interaction.FallbackResponse
}

// SlideByID looks up a slide entry.
func (d *Deck) SlideByID(id int) (*Slide, bool) {
	s, ok := d.byID[id]
	return s, ok
}
