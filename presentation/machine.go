package presentation

import (
	"fmt"

	"github.com/hupe1980/stagehand/command"
	"github.com/hupe1980/stagehand/logging"
)

// Deck exposes the slide configuration the machine needs to resolve
// navigation targets and audio filenames. Implemented by config.Deck.
type Deck interface {
	TotalSlides() int
	// NarrationAudio returns the narration filename for a slide, empty when
	// none is configured.
	NarrationAudio(slide int) string
	// QuestionAudio returns the pre-rendered question clip for a slide,
	// empty when none is configured.
	QuestionAudio(slide int) string
	// Interaction returns the configured audience interaction for a slide.
	Interaction(slide int) (target, question string, ok bool)
	IntroSlide() int
	StartSlide() int
	QASlide() int
	OutroSlide() int
}

// MachineOptions configures the state machine.
type MachineOptions struct {
	Logger logging.Logger
}

// Machine evaluates the AgentState transition table. It is a pure dispatch
// over the command kind; all mutable state lives in the caller's snapshot.
type Machine struct {
	deck   Deck
	logger logging.Logger
}

// NewMachine creates a machine over the given deck.
func NewMachine(deck Deck, optFns ...func(o *MachineOptions)) *Machine {
	opts := MachineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Machine{deck: deck, logger: opts.Logger}
}

// Apply evaluates one command against a snapshot and returns the successor
// snapshot plus the ordered effects to broadcast. Audio effects carry no
// token yet; the engine stamps one inside its critical section.
func (m *Machine) Apply(snap Snapshot, cmd command.Command) (Snapshot, []Effect) {
	switch cmd.Kind {
	case command.KindIntro:
		return m.narrate(snap, StateIntroducing, m.deck.IntroSlide(), "Playing introduction")
	case command.KindStart:
		return m.narrate(snap, StatePresenting, m.deck.StartSlide(), "Starting presentation")
	case command.KindNext:
		return m.narrate(snap, StatePresenting, snap.CurrentSlide+1, "Next slide")
	case command.KindPrev:
		return m.narrate(snap, StatePresenting, snap.CurrentSlide-1, "Previous slide")
	case command.KindGoto:
		return m.narrate(snap, StatePresenting, cmd.Slide, fmt.Sprintf("Jumping to slide %d", ClampSlide(cmd.Slide, snap.TotalSlides)))
	case command.KindAsk:
		return m.ask(snap, cmd)
	case command.KindAnswer:
		snap.State = StateResponding
		snap.LastAnswerSummary = cmd.Summary
		return snap, []Effect{
			ShowAvatar{Mode: AvatarThinking},
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: fmt.Sprintf("Generating response to %s...", snap.CurrentTarget)},
		}
	case command.KindExample:
		snap.State = StateResponding
		snap.LastAnswerSummary = ExampleAnswerSentinel
		return snap, []Effect{
			ShowAvatar{Mode: AvatarThinking},
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Generating example response..."},
		}
	case command.KindQA:
		return m.narrate(snap, StateQaMode, m.deck.QASlide(), "Entering Q&A")
	case command.KindPick:
		snap.State = StateQaMode
		snap.QaQuestionID = cmd.QuestionID
		return snap, []Effect{
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: fmt.Sprintf("Answering question #%d", cmd.QuestionID)},
		}
	case command.KindOutro:
		return m.narrate(snap, StateOutro, m.deck.OutroSlide(), "Playing outro")
	case command.KindResume:
		return m.resume(snap)
	case command.KindSkip, command.KindStop:
		snap.State = StateIdle
		snap.AudioPlaying = false
		snap.AudioKind = AudioNone
		return snap, []Effect{
			StopAudio{},
			ShowAvatar{Mode: AvatarIdle},
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Skipped"},
		}
	case command.KindPause:
		return m.pause(snap)
	default:
		// Unrecognized kinds never reach the display.
		snap.State = StateIdle
		return snap, nil
	}
}

// ExampleAnswerSentinel marks a response generated without a real audience
// answer; the prompt templates branch on it.
const ExampleAnswerSentinel = "__example__"

// CompleteAudio is the synthetic transition fired when a validated playback
// completion report arrives. It always clears the audio flags first.
func (m *Machine) CompleteAudio(snap Snapshot) (Snapshot, []Effect) {
	snap.AudioPlaying = false
	snap.AudioKind = AudioNone

	switch snap.State {
	case StateAsking:
		snap.State = StateWaitingAnswer
		return snap, []Effect{
			ShowAvatar{Mode: AvatarListening},
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: fmt.Sprintf("Waiting for %s to answer...", snap.CurrentTarget)},
		}
	case StateResponding:
		if snap.QaQuestionID != 0 {
			snap.QaQuestionID = 0
			snap.State = StateQaMode
			snap.QuestionsAnswered++
			return snap, []Effect{
				ShowAvatar{Mode: AvatarIdle},
				StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Ready for the next question"},
			}
		}
		snap.State = StateIdle
		return snap, []Effect{ShowAvatar{Mode: AvatarIdle}}
	case StateIntroducing:
		snap.State = StateIdle
		return snap, []Effect{ShowAvatar{Mode: AvatarIdle}}
	case StateOutro:
		snap.State = StateDone
		return snap, []Effect{
			ShowAvatar{Mode: AvatarIdle},
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Presentation complete"},
		}
	default:
		// Narration finished; the state keeps describing where we are.
		return snap, nil
	}
}

func (m *Machine) narrate(snap Snapshot, state State, slide int, message string) (Snapshot, []Effect) {
	slide = ClampSlide(slide, snap.TotalSlides)
	snap.State = state
	snap.CurrentSlide = slide

	file := m.deck.NarrationAudio(slide)
	if file == "" {
		file = fmt.Sprintf("slide_%02d.mp3", slide)
	}
	snap.AudioPlaying = true
	snap.AudioKind = AudioPreGenerated

	return snap, []Effect{
		GotoSlide{Index: slide},
		ShowAvatar{Mode: AvatarSpeaking},
		PlayAudio{File: file, Kind: AudioPreGenerated},
		StatusUpdate{State: state, Slide: slide, Message: message},
	}
}

func (m *Machine) ask(snap Snapshot, cmd command.Command) (Snapshot, []Effect) {
	snap.State = StateAsking
	snap.CurrentTarget = cmd.TargetName
	snap.CurrentQuestion = cmd.Question

	effects := []Effect{
		ShowAvatar{Mode: AvatarSpeaking},
		ShowQuestion{TargetName: cmd.TargetName, Question: cmd.Question},
	}
	if file := m.deck.QuestionAudio(snap.CurrentSlide); file != "" {
		snap.AudioPlaying = true
		snap.AudioKind = AudioPreGenerated
		effects = append(effects, PlayAudio{File: file, Kind: AudioPreGenerated})
	} else {
		m.logger.Warn("No question audio configured", "slide", snap.CurrentSlide, "target", cmd.TargetName)
	}
	effects = append(effects, StatusUpdate{
		State:   snap.State,
		Slide:   snap.CurrentSlide,
		Message: fmt.Sprintf("Asking %s", cmd.TargetName),
	})
	return snap, effects
}

func (m *Machine) resume(snap Snapshot) (Snapshot, []Effect) {
	if snap.State != StatePaused {
		return snap, []Effect{
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Nothing is paused"},
		}
	}
	restored := snap.PreviousState
	if restored == "" {
		restored = StateIdle
	}
	snap.State = restored
	snap.PreviousState = ""
	return snap, []Effect{
		StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Resumed"},
	}
}

func (m *Machine) pause(snap Snapshot) (Snapshot, []Effect) {
	if snap.State == StatePaused {
		return snap, []Effect{
			StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Already paused"},
		}
	}
	snap.PreviousState = snap.State
	snap.State = StatePaused
	snap.AudioPlaying = false
	snap.AudioKind = AudioNone
	return snap, []Effect{
		StopAudio{},
		StatusUpdate{State: snap.State, Slide: snap.CurrentSlide, Message: "Paused"},
	}
}
