package playback

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds the token of the currently playing audio clip. The zero
// value is ready to use; no clip is considered live.
type Registry struct {
	mu   sync.Mutex
	live string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Mint issues a fresh token for a clip that is about to play. Any previously
// live token becomes stale.
func (r *Registry) Mint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = uuid.NewString()
	return r.live
}

// Validate reports whether a completion report carrying the given token
// refers to the live clip. An empty token (old display clients do not send
// one) matches only when no token is live, so legacy reports cannot cancel a
// tracked clip.
func (r *Registry) Validate(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return r.live == ""
	}
	return token == r.live
}

// Clear invalidates the live token, if any. Called when playback is skipped
// or stopped and on successful completion so duplicate reports are honored
// exactly once.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = ""
}

// Live returns the current token, empty when nothing is playing. Intended
// for status surfaces and tests.
func (r *Registry) Live() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
