// Package server exposes the engine over HTTP and WebSocket. Two sockets
// carry the live traffic: /ws/presenter feeds the display (slides, avatar,
// audio) and reports playback completions back, /ws/control serves operator
// consoles. A small REST surface covers audience question submission, status
// polling and speech diagnostics. The server implements engine.Sink, so
// wiring is one SetSink call.
package server
