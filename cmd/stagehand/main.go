// Command stagehand runs the presentation orchestration server.
//
// Credentials come from the environment: OPENAI_API_KEY or ANTHROPIC_API_KEY
// for response generation, ELEVENLABS_API_KEY or DEEPGRAM_API_KEY for speech
// synthesis and STAGEHAND_DB_DSN for durable question storage. Everything is
// optional; without credentials the engine degrades to canned responses and
// on-screen text.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/stagehand"
	"github.com/hupe1980/stagehand/config"
	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/question"
	"github.com/hupe1980/stagehand/question/postgres"
	"github.com/hupe1980/stagehand/respond"
	"github.com/hupe1980/stagehand/respond/anthropic"
	"github.com/hupe1980/stagehand/respond/openai"
	"github.com/hupe1980/stagehand/speech"
	"github.com/hupe1980/stagehand/speech/deepgram"
	"github.com/hupe1980/stagehand/speech/elevenlabs"
)

func main() {
	var (
		deckPath    = flag.String("deck", "config/deck.yaml", "slide deck YAML")
		rosterPath  = flag.String("roster", "", "audience roster YAML")
		promptsPath = flag.String("prompts", "", "prompt templates YAML (required with -provider)")
		addr        = flag.String("addr", ":8080", "listen address")
		audioDir    = flag.String("audio-dir", "audio", "pre-generated narration directory")
		provider    = flag.String("provider", "", "response generator: openai or anthropic")
		sessionID   = flag.String("session", "default", "session id for durable question storage")
		logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
		logFormat   = flag.String("log-format", "text", "text or json")
		genTimeout  = flag.Duration("generation-timeout", 60*time.Second, "model call timeout")
	)
	flag.Parse()

	logger := logging.NewSlogLogger(parseLevel(*logLevel), *logFormat, false)

	banner()

	generator, err := buildGenerator(*provider, *promptsPath)
	if err != nil {
		fail(err)
	}
	synth := buildSynthesizer(logger)

	var store question.Store
	if dsn := os.Getenv("STAGEHAND_DB_DSN"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := postgres.New(ctx, dsn, func(o *postgres.Options) {
			o.SessionID = *sessionID
			o.Logger = logger
		})
		cancel()
		if err != nil {
			fail(fmt.Errorf("connect question store: %w", err))
		}
		defer pg.Close()
		store = pg
		logger.Info("Question persistence enabled", "session", *sessionID)
	}

	sh, err := stagehand.New(func(o *stagehand.Options) {
		o.DeckPath = *deckPath
		o.RosterPath = *rosterPath
		o.PromptsPath = *promptsPath
		o.Addr = *addr
		o.AudioDir = *audioDir
		o.Generator = generator
		o.Synthesizer = synth
		o.QuestionStore = store
		o.GenerationTimeout = *genTimeout
		o.Logger = logger
	})
	if err != nil {
		fail(err)
	}

	printSetup(sh, *addr, *provider, synth)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sh.Run(ctx); err != nil {
		fail(err)
	}
}

func buildGenerator(provider, promptsPath string) (respond.Generator, error) {
	if provider == "" {
		return nil, nil
	}
	if promptsPath == "" {
		return nil, fmt.Errorf("-prompts is required with -provider %s", provider)
	}
	prompts, err := config.LoadPrompts(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	switch provider {
	case "openai":
		return openai.New(func(o *openai.Options) { o.Prompts = prompts }), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) { o.Prompts = prompts }), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want openai or anthropic)", provider)
	}
}

func buildSynthesizer(logger logging.Logger) speech.Synthesizer {
	if os.Getenv("ELEVENLABS_API_KEY") != "" {
		return elevenlabs.New(func(o *elevenlabs.Options) { o.Logger = logger })
	}
	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		return deepgram.New(func(o *deepgram.Options) { o.Logger = logger })
	}
	return nil
}

func parseLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

func banner() {
	color.New(color.FgMagenta, color.Bold).Println("Stagehand")
	color.New(color.Faint).Println("live presentation orchestration")
	fmt.Println()
}

func printSetup(sh *stagehand.Stagehand, addr, provider string, synth speech.Synthesizer) {
	ok := color.New(color.FgGreen).SprintFunc()
	off := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("  deck:       %s (%d slides)\n", ok(sh.Deck().Presentation.Title), sh.Deck().TotalSlides())
	if provider != "" {
		fmt.Printf("  responses:  %s\n", ok(provider))
	} else {
		fmt.Printf("  responses:  %s\n", off("canned fallbacks (no provider)"))
	}
	if synth != nil && synth.Configured() {
		fmt.Printf("  speech:     %s\n", ok("configured"))
	} else {
		fmt.Printf("  speech:     %s\n", off("text only"))
	}
	fmt.Printf("  presenter:  ws://localhost%s/ws/presenter\n", addr)
	fmt.Printf("  control:    ws://localhost%s/ws/control\n", addr)
	fmt.Println()
}

func fail(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "stagehand: %v\n", err)
	os.Exit(1)
}
