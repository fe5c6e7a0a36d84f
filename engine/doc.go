// Package engine implements the core orchestration layer for Stagehand.
//
// The Engine is the single owner of the presentation snapshot and the
// synchronization point for the two asynchronous inputs of a live session:
// operator commands and playback completion reports from the display. It
// wires the command parser, the FIFO queue with its interrupt path, the
// playback token registry and the presentation state machine together, and
// broadcasts the resulting effects to the presenter and control surfaces.
//
// # Core Responsibilities
//
// Command Handling:
//   - Parse raw operator text into typed commands
//   - FIFO dispatch with an immediate bypass for pause/stop interrupts
//   - Single-slot deferral of slide-advancing commands while audio plays
//
// Playback Synchronization:
//   - Mint a fresh token for every audio-start effect
//   - Validate completion reports and drop stale or duplicated ones
//   - Drive the synthetic audio-completion transition and chain deferred
//     or queued commands afterwards
//
// Response Pipeline:
//   - Generate spoken responses to audience answers and Q&A questions
//   - Synthesize live audio and stream it to the presenter
//   - Fall back to fixed text when generation or synthesis fails, always
//     completing the state transition
//
// # Concurrency Model
//
// All snapshot mutations happen inside SubmitText and ReportAudioComplete,
// which serialize on one operational mutex; no two state-machine evaluations
// are ever in flight. Status reads take a separate read lock so the control
// surface can poll during long generation calls. Broadcasts are fire and
// forget; a disconnected client never fails a command.
package engine
