package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stagehand/engine"
	"github.com/hupe1980/stagehand/presentation"
)

// testDeck is a 10 slide deck with pre-generated narration everywhere.
type testDeck struct{}

func (testDeck) TotalSlides() int { return 10 }
func (testDeck) NarrationAudio(slide int) string {
	return fmt.Sprintf("slide_%02d.mp3", slide)
}
func (testDeck) QuestionAudio(int) string               { return "" }
func (testDeck) Interaction(int) (string, string, bool) { return "", "", false }
func (testDeck) FallbackResponse(int) string            { return "" }
func (testDeck) IntroSlide() int                        { return 1 }
func (testDeck) StartSlide() int                        { return 2 }
func (testDeck) QASlide() int                           { return 8 }
func (testDeck) OutroSlide() int                        { return 9 }

func newTestServer(t *testing.T) (*Server, *httptest.Server, *engine.Engine) {
	t.Helper()
	eng := engine.New(testDeck{})
	srv := New(eng)
	eng.SetSink(srv)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, eng
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestStatusEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var report engine.StatusReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, presentation.StateIdle, report.Snapshot.State)
	assert.Equal(t, 10, report.Snapshot.TotalSlides)
}

func TestCommandEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/command", "application/json",
		bytes.NewBufferString(`{"text":"/start"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var res engine.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "processing", res.Status)
	assert.Equal(t, 2, res.Slide)
}

func TestSubmitAndListQuestions(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/questions", "application/json",
		bytes.NewBufferString(`{"name":"Ravi","question":"Does it scale?"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Empty questions are rejected at the API boundary.
	resp, err = http.Post(ts.URL+"/api/questions", "application/json",
		bytes.NewBufferString(`{"name":"","question":"  "}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/questions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Questions []map[string]any `json:"questions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Questions, 1)
	assert.Equal(t, "Does it scale?", body.Questions[0]["question"])
}

func TestPresenterPlaybackRoundTrip(t *testing.T) {
	_, ts, eng := newTestServer(t)
	conn := dialWS(t, ts, "/ws/presenter")

	var greeting presenterMessage
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, "connected", greeting.Type)

	resp, err := http.Post(ts.URL+"/api/command", "application/json",
		bytes.NewBufferString(`{"text":"/start"}`))
	require.NoError(t, err)
	resp.Body.Close()

	var play presenterMessage
	for {
		var msg presenterMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgPlayAudio {
			play = msg
			break
		}
	}
	assert.Equal(t, "slide_02.mp3", play.File)
	assert.Equal(t, "/audio/slide_02.mp3", play.URL)
	require.NotEmpty(t, play.PlaybackToken)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "audio_ended", PlaybackToken: play.PlaybackToken}))

	assert.Eventually(t, func() bool {
		return !eng.Status().Snapshot.AudioPlaying
	}, time.Second, 10*time.Millisecond)
}

func TestControlCommandRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts, "/ws/control")

	var greeting map[string]any
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, "connected", greeting["type"])

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "command", Text: "/status"}))

	var reply struct {
		Type   string        `json:"type"`
		Result engine.Result `json:"result"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "command_result", reply.Type)
	assert.Equal(t, engine.StatusStatus, reply.Result.Status)
}

func TestSpeechEndpointsUnconfigured(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/speech/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, false, status["configured"])

	resp, err = http.Post(ts.URL+"/api/speech/test", "application/json",
		bytes.NewBufferString(`{"text":"check"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEncodeEffect(t *testing.T) {
	msg := encodeEffect(presentation.GotoSlide{Index: 4})
	assert.Equal(t, msgGotoSlide, msg.Type)
	assert.Equal(t, 4, msg.Slide)

	msg = encodeEffect(presentation.PlayAudio{File: "x.mp3", Token: "tok"})
	assert.Equal(t, "/audio/x.mp3", msg.URL)
	assert.Equal(t, "tok", msg.PlaybackToken)

	msg = encodeEffect(presentation.PlayLiveAudio{Audio: []byte("abc"), ResponseText: "hi", Token: "t2"})
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), msg.Audio)
	assert.Equal(t, "hi", msg.Text)

	msg = encodeEffect(presentation.StatusUpdate{State: presentation.StatePresenting, Slide: 3, Message: "m"})
	assert.Equal(t, "presenting", msg.State)
	assert.Equal(t, 3, msg.Slide)
}
