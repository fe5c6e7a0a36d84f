package speech

import "context"

// Chunk is one piece of a streamed synthesis, ordered by Index. The final
// chunk carries no data and Final set, so consumers can close out playback.
type Chunk struct {
	Data  []byte `json:"-"`
	Index int    `json:"index"`
	Final bool   `json:"final"`
}

// Synthesizer converts text into spoken audio.
type Synthesizer interface {
	// Synthesize returns the complete audio for the text (MP3 bytes).
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Stream yields audio chunks as they arrive for low-latency playback.
	// The channel is closed after the final chunk; a synthesis failure is
	// delivered on the error channel instead.
	Stream(ctx context.Context, text string) (<-chan Chunk, <-chan error)

	// Configured reports whether the adapter has credentials to work with.
	Configured() bool
}

// Voice describes an available synthesis voice.
type Voice struct {
	ID       string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
