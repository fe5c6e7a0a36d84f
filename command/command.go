package command

import "time"

// Kind identifies the operation an operator command requests.
type Kind string

const (
	// KindIntro plays the presenter introduction.
	KindIntro Kind = "intro"
	// KindStart begins the main presentation at the first content slide.
	KindStart Kind = "start"
	// KindNext advances to the next slide.
	KindNext Kind = "next"
	// KindPrev moves back one slide.
	KindPrev Kind = "prev"
	// KindGoto jumps to a specific slide.
	KindGoto Kind = "goto"
	// KindAsk directs a question at a named audience member.
	KindAsk Kind = "ask"
	// KindAnswer relays an audience member's spoken answer (any non-slash text).
	KindAnswer Kind = "answer"
	// KindExample requests a response to a stand-in example answer.
	KindExample Kind = "example"
	// KindQA enters the open Q&A segment.
	KindQA Kind = "qa"
	// KindPick selects a submitted audience question by id.
	KindPick Kind = "pick"
	// KindOutro plays the closing segment.
	KindOutro Kind = "outro"
	// KindPause halts playback immediately, bypassing the queue.
	KindPause Kind = "pause"
	// KindResume returns from the paused state.
	KindResume Kind = "resume"
	// KindSkip cancels current and queued work and returns to idle.
	KindSkip Kind = "skip"
	// KindStop halts everything immediately, bypassing the queue.
	KindStop Kind = "stop"
	// KindStatus requests an engine status report.
	KindStatus Kind = "status"

	// KindUnknown marks a slash command outside the vocabulary.
	KindUnknown Kind = "unknown"
	// KindError marks a recognized command with malformed arguments.
	KindError Kind = "error"
)

// PriorityInterrupt marks commands that bypass the FIFO queue.
const PriorityInterrupt = 1

// Command is a parsed operator instruction. Only the argument fields relevant
// to Kind are populated; everything else stays zero.
type Command struct {
	Kind      Kind
	Priority  int
	RawText   string
	Timestamp time.Time

	Slide      int    // goto
	TargetName string // ask
	Question   string // ask (empty means fill from slide config)
	Summary    string // answer
	QuestionID int    // pick
	Reason     string // unknown / error detail
}

// IsInterrupt reports whether the command bypasses the queue.
func (c Command) IsInterrupt() bool { return c.Priority == PriorityInterrupt }

// AdvancesSlides reports whether dispatching the command would move the deck
// or start new narration. These are the kinds the engine defers while audio
// is still playing.
func (c Command) AdvancesSlides() bool {
	switch c.Kind {
	case KindNext, KindPrev, KindGoto, KindStart, KindAsk:
		return true
	default:
		return false
	}
}

// Actionable reports whether the command mutates presentation state at all.
// Status reports and parse failures are handled before the queue.
func (c Command) Actionable() bool {
	switch c.Kind {
	case KindStatus, KindUnknown, KindError:
		return false
	default:
		return true
	}
}
