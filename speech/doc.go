// Package speech defines the speech-synthesis interface used for live
// responses during a presentation. Pre-generated narration is plain files
// served by the transport; this package only covers on-the-fly synthesis.
// Adapters for ElevenLabs and Deepgram live in subpackages.
package speech
