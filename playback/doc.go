// Package playback issues and validates the single-use tokens that tie audio
// completion reports from the presenter surface back to the clip the engine
// believes is playing. At most one token is live at a time; minting a new one
// implicitly invalidates its predecessor, so stale or duplicated completion
// reports from a flaky display can be recognized and dropped.
package playback
