// Package config loads the YAML files that describe a presentation: the
// slide deck (narration audio, per-slide audience interactions, segment
// slide indices), the audience roster, and the prompt templates used for
// response generation. Loading is strict about structure but lenient about
// optional fields; a deck without interactions or audio still drives a
// presentation.
package config
