// Package stagehand provides a high-level façade over the presentation
// engine and its transport. Most applications interact with this package by:
//  1. Creating a Stagehand via New() with paths to the deck, roster and
//     prompt configuration
//  2. Supplying a response generator and speech synthesizer (optional; the
//     engine degrades to canned text without them)
//  3. Calling Run() to serve the presenter and control surfaces
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for a dry run without any
// external credentials; a live presentation typically supplies a model
// backed generator, a synthesizer and a durable question store.
package stagehand

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/stagehand/config"
	"github.com/hupe1980/stagehand/engine"
	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/question"
	"github.com/hupe1980/stagehand/respond"
	"github.com/hupe1980/stagehand/server"
	"github.com/hupe1980/stagehand/speech"
)

// Options configures the Stagehand instance.
type Options struct {
	// DeckPath is the slide deck YAML; required.
	DeckPath string

	// RosterPath is the audience roster YAML; optional.
	RosterPath string

	// PromptsPath is the prompt template YAML; optional, only needed when a
	// generator reads its system prompts from configuration.
	PromptsPath string

	// Addr is the HTTP listen address.
	Addr string

	// AudioDir holds the pre-generated narration files served under /audio/.
	AudioDir string

	// Generator produces spoken responses; nil falls back to canned text.
	Generator respond.Generator

	// Synthesizer voices live responses; nil degrades to on-screen text.
	Synthesizer speech.Synthesizer

	// QuestionStore mirrors audience questions to durable storage.
	QuestionStore question.Store

	// GenerationTimeout bounds one model call; zero keeps the engine default.
	GenerationTimeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Stagehand aggregates the loaded configuration, the engine and the server.
type Stagehand struct {
	opts    Options
	deck    *config.Deck
	roster  *config.Roster
	prompts *config.Prompts
	engine  *engine.Engine
	server  *server.Server
}

// New loads the configuration and wires engine and server together.
func New(optFns ...func(o *Options)) (*Stagehand, error) {
	opts := Options{
		Addr:   ":8080",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.DeckPath == "" {
		return nil, fmt.Errorf("deck path is required")
	}
	deck, err := config.LoadDeck(opts.DeckPath)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}

	var roster *config.Roster
	if opts.RosterPath != "" {
		if roster, err = config.LoadRoster(opts.RosterPath); err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
	} else {
		roster, _ = config.ParseRoster(nil)
	}

	var prompts *config.Prompts
	if opts.PromptsPath != "" {
		if prompts, err = config.LoadPrompts(opts.PromptsPath); err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
	}

	questions := question.NewManager(func(o *question.ManagerOptions) {
		o.Store = opts.QuestionStore
		o.Logger = opts.Logger
	})

	eng := engine.New(deck, func(o *engine.Options) {
		o.Generator = opts.Generator
		o.Synthesizer = opts.Synthesizer
		o.Questions = questions
		o.Roster = roster
		o.Logger = opts.Logger
		if opts.GenerationTimeout > 0 {
			o.GenerationTimeout = opts.GenerationTimeout
		}
	})

	srv := server.New(eng, func(o *server.Options) {
		o.Addr = opts.Addr
		o.AudioDir = opts.AudioDir
		o.Synthesizer = opts.Synthesizer
		o.Logger = opts.Logger
	})
	eng.SetSink(srv)

	return &Stagehand{
		opts:    opts,
		deck:    deck,
		roster:  roster,
		prompts: prompts,
		engine:  eng,
		server:  srv,
	}, nil
}

// Engine exposes the underlying engine for direct use and testing.
func (s *Stagehand) Engine() *engine.Engine { return s.engine }

// Deck returns the loaded slide deck.
func (s *Stagehand) Deck() *config.Deck { return s.deck }

// Prompts returns the loaded prompt templates, nil when none were configured.
func (s *Stagehand) Prompts() *config.Prompts { return s.prompts }

// SubmitText forwards one line of operator input to the engine.
func (s *Stagehand) SubmitText(ctx context.Context, text string) engine.Result {
	return s.engine.SubmitText(ctx, text)
}

// Status returns the engine's full status report.
func (s *Stagehand) Status() engine.StatusReport { return s.engine.Status() }

// Run serves until the context is canceled.
func (s *Stagehand) Run(ctx context.Context) error {
	s.opts.Logger.Info("Stagehand starting",
		"title", s.deck.Presentation.Title,
		"slides", s.deck.TotalSlides(),
		"audience", s.roster.Size(),
		"addr", s.opts.Addr,
	)
	return s.server.Run(ctx)
}
