package server

import (
	"encoding/base64"

	"github.com/hupe1980/stagehand/presentation"
)

// Presenter message types.
const (
	msgGotoSlide        = "goto_slide"
	msgShowAvatar       = "show_avatar"
	msgPlayAudio        = "play_audio"
	msgPlayLiveAudio    = "play_live_audio"
	msgShowQuestion     = "show_question"
	msgShowResponseText = "show_response_text"
	msgStatus           = "status"
	msgStopAudio        = "stop_audio"
)

// presenterMessage is the wire envelope for display instructions. Only the
// fields relevant to Type are set.
type presenterMessage struct {
	Type          string `json:"type"`
	Slide         int    `json:"slide"`
	Mode          string `json:"mode,omitempty"`
	File          string `json:"file,omitempty"`
	URL           string `json:"url,omitempty"`
	Audio         string `json:"audio,omitempty"` // base64 mp3
	Text          string `json:"text,omitempty"`
	Target        string `json:"target,omitempty"`
	Question      string `json:"question,omitempty"`
	State         string `json:"state,omitempty"`
	Message       string `json:"message,omitempty"`
	PlaybackToken string `json:"playback_token,omitempty"`
}

// encodeEffect maps one engine effect onto its wire message. The effect set
// is closed, so the default branch is unreachable by construction.
func encodeEffect(effect presentation.Effect) presenterMessage {
	switch e := effect.(type) {
	case presentation.GotoSlide:
		return presenterMessage{Type: msgGotoSlide, Slide: e.Index}
	case presentation.ShowAvatar:
		return presenterMessage{Type: msgShowAvatar, Mode: string(e.Mode)}
	case presentation.PlayAudio:
		return presenterMessage{Type: msgPlayAudio, File: e.File, URL: "/audio/" + e.File, PlaybackToken: e.Token}
	case presentation.PlayLiveAudio:
		return presenterMessage{
			Type:          msgPlayLiveAudio,
			Audio:         base64.StdEncoding.EncodeToString(e.Audio),
			Text:          e.ResponseText,
			PlaybackToken: e.Token,
		}
	case presentation.ShowQuestion:
		return presenterMessage{Type: msgShowQuestion, Target: e.TargetName, Question: e.Question}
	case presentation.ShowResponseText:
		return presenterMessage{Type: msgShowResponseText, Target: e.Target, Text: e.Text}
	case presentation.StatusUpdate:
		return presenterMessage{Type: msgStatus, State: string(e.State), Slide: e.Slide, Message: e.Message}
	case presentation.StopAudio:
		return presenterMessage{Type: msgStopAudio}
	default:
		return presenterMessage{Type: "unknown"}
	}
}

// inboundMessage is what presenter and control clients send upstream.
type inboundMessage struct {
	Type          string `json:"type"`
	PlaybackToken string `json:"playback_token,omitempty"`
	Slide         int    `json:"slide,omitempty"`
	Text          string `json:"text,omitempty"`
}
