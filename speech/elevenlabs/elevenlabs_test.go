package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/stagehand/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return New(func(o *Options) {
		o.BaseURL = serverURL
		o.APIKey = "test-key"
		o.MaxRetries = 1
		o.StreamChunkSize = 4
	})
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		assert.Contains(t, r.URL.Path, "/text-to-speech/")
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	audio, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestSynthesizeRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	audio, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), audio)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSynthesizeFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/stream")
		w.Write([]byte("abcdefgh")) // two 4-byte chunks
	}))
	defer srv.Close()

	chunks, errCh := newTestClient(srv.URL).Stream(context.Background(), "hello")

	var got []speech.Chunk
	for c := range chunks {
		got = append(got, c)
	}
	require.NoError(t, <-errCh)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.True(t, last.Final)
	assert.Empty(t, last.Data)

	var total []byte
	for _, c := range got[:len(got)-1] {
		total = append(total, c.Data...)
	}
	assert.Equal(t, []byte("abcdefgh"), total)
	for i, c := range got {
		assert.Equal(t, i, c.Index)
	}
}

func TestCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/subscription", r.URL.Path)
		w.Write([]byte(`{"character_count": 1000, "character_limit": 10000}`))
	}))
	defer srv.Close()

	remaining, err := newTestClient(srv.URL).Credits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9000, remaining)
}

func TestConfigured(t *testing.T) {
	c := New(func(o *Options) { o.APIKey = "" })
	assert.False(t, c.Configured())

	c = New(func(o *Options) { o.APIKey = "k" })
	assert.True(t, c.Configured())
}
