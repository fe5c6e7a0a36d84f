package presentation

// State is the presentation agent's lifecycle state.
type State string

const (
	// StateIdle means the agent is awaiting direction.
	StateIdle State = "idle"
	// StateIntroducing plays the presenter introduction.
	StateIntroducing State = "introducing"
	// StatePresenting narrates the current slide.
	StatePresenting State = "presenting"
	// StateAsking addresses a question to an audience member.
	StateAsking State = "asking"
	// StateWaitingAnswer waits for the operator to relay the answer.
	StateWaitingAnswer State = "waiting_answer"
	// StateResponding generates and speaks a live response.
	StateResponding State = "responding"
	// StateTransitioning bridges between segments.
	StateTransitioning State = "transitioning"
	// StateQaMode runs the open Q&A segment.
	StateQaMode State = "qa_mode"
	// StateOutro plays the closing segment.
	StateOutro State = "outro"
	// StatePaused is a suspension that remembers where it came from.
	StatePaused State = "paused"
	// StateDone is terminal; the presentation is over.
	StateDone State = "done"
)

// Terminal reports whether no further commands can move the presentation.
func (s State) Terminal() bool { return s == StateDone }

// AudioKind distinguishes the source of the clip currently playing.
type AudioKind string

const (
	// AudioNone means no audio is associated with the current state.
	AudioNone AudioKind = ""
	// AudioPreGenerated is narration served from pre-rendered files.
	AudioPreGenerated AudioKind = "pre_generated"
	// AudioLive is synthesized on the fly and streamed as bytes.
	AudioLive AudioKind = "live"
)

// AvatarMode selects the presenter avatar animation.
type AvatarMode string

const (
	// AvatarSpeaking animates active narration.
	AvatarSpeaking AvatarMode = "speaking"
	// AvatarListening animates attention toward the audience.
	AvatarListening AvatarMode = "listening"
	// AvatarThinking animates response generation.
	AvatarThinking AvatarMode = "thinking"
	// AvatarIdle is the resting animation.
	AvatarIdle AvatarMode = "idle"
)

// Snapshot is the complete presentation state at a point in time. It is a
// value type; the Machine returns modified copies and never mutates input.
type Snapshot struct {
	State         State
	PreviousState State

	CurrentSlide int
	TotalSlides  int

	AudioPlaying bool
	AudioKind    AudioKind

	CurrentTarget     string
	CurrentTargetRole string
	CurrentQuestion   string
	LastAnswerSummary string
	LastResponse      string

	// QaQuestionID is the picked audience question, 0 when none is selected.
	QaQuestionID int

	QuestionsAnswered int
}

// NewSnapshot returns the initial snapshot for a deck of the given size.
func NewSnapshot(totalSlides int) Snapshot {
	return Snapshot{State: StateIdle, TotalSlides: totalSlides}
}

// ClampSlide keeps a slide index inside the deck bounds.
func ClampSlide(n, totalSlides int) int {
	if n < 0 {
		return 0
	}
	if max := totalSlides - 1; n > max {
		return max
	}
	return n
}
