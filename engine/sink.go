package engine

import (
	"github.com/hupe1980/stagehand/presentation"
	"github.com/hupe1980/stagehand/question"
)

// Control message types broadcast to operator consoles.
const (
	ControlStatusUpdate      = "status_update"
	ControlResponseGenerated = "response_generated"
	ControlNewQuestion       = "new_question"
	ControlError             = "error"
)

// ControlMessage is the envelope broadcast to the control surface.
type ControlMessage struct {
	Type     string             `json:"type"`
	State    presentation.State `json:"state,omitempty"`
	Slide    int                `json:"slide"`
	Message  string             `json:"message,omitempty"`
	Target   string             `json:"target,omitempty"`
	Response string             `json:"response,omitempty"`
	Question *question.Question `json:"question,omitempty"`
}

// Sink receives the engine's outbound traffic. Implementations must not
// block on slow or disconnected clients; delivery is best effort and a
// failed broadcast never fails the command that produced it.
type Sink interface {
	// BroadcastPresenter sends display instructions, in order.
	BroadcastPresenter(effects ...presentation.Effect)

	// BroadcastControl sends a status envelope to operator consoles.
	BroadcastControl(msg ControlMessage)
}

// noopSink drops everything; the default until a transport attaches.
type noopSink struct{}

func (noopSink) BroadcastPresenter(...presentation.Effect) {}
func (noopSink) BroadcastControl(ControlMessage)           {}
