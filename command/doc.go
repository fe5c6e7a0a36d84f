// Package command defines the operator command vocabulary for Stagehand.
//
// Raw operator text is turned into a typed Command by Parse, which is total:
// it never returns an error. Unrecognized slash commands come back with
// KindUnknown and malformed arguments with KindError, so callers can report
// the problem to the operator without special casing panics or error values.
//
// Queue provides FIFO ordering for normal commands and an immediate bypass
// path for interrupt commands (pause, stop). Only one command is ever in
// flight; the queue stays busy until the owner reports the current action
// complete.
package command
