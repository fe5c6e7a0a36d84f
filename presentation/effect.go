package presentation

// Effect is an outbound instruction for the presenter display. The set is
// closed; the transport layer switches over the concrete types to build wire
// messages, and a missed case is a compile-visible gap rather than a silent
// map-shaped payload.
type Effect interface {
	effect()
}

// GotoSlide moves the display to a slide index.
type GotoSlide struct {
	Index int
}

// ShowAvatar switches the presenter avatar animation.
type ShowAvatar struct {
	Mode AvatarMode
}

// PlayAudio starts a pre-generated narration clip. Token is stamped by the
// engine before dispatch so the eventual completion report can be matched.
type PlayAudio struct {
	File  string
	Kind  AudioKind
	Token string
}

// PlayLiveAudio streams synthesized audio bytes alongside the response text.
type PlayLiveAudio struct {
	Audio        []byte
	ResponseText string
	Token        string
}

// ShowQuestion overlays the question addressed to an audience member.
type ShowQuestion struct {
	TargetName string
	Question   string
}

// ShowResponseText displays response text without audio, used when speech
// synthesis is unavailable or failed.
type ShowResponseText struct {
	Target string
	Text   string
}

// StatusUpdate carries state/slide/message for status overlays.
type StatusUpdate struct {
	State   State
	Slide   int
	Message string
}

// StopAudio halts whatever the display is playing, best effort.
type StopAudio struct{}

func (GotoSlide) effect()        {}
func (ShowAvatar) effect()       {}
func (PlayAudio) effect()        {}
func (PlayLiveAudio) effect()    {}
func (ShowQuestion) effect()     {}
func (ShowResponseText) effect() {}
func (StatusUpdate) effect()     {}
func (StopAudio) effect()        {}
