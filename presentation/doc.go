// Package presentation holds the pure core of the orchestration engine: the
// AgentState enumeration, the immutable Snapshot of a running presentation,
// the closed set of outbound Effects consumed by the display surfaces, and
// the Machine that maps (snapshot, command) pairs to (snapshot, effects).
//
// The Machine performs no I/O and owns no mutable state; the engine package
// is the single owner of the live snapshot and feeds it through the machine
// under its operational lock. Playback tokens are deliberately absent here,
// the engine stamps them onto audio effects before dispatch.
package presentation
