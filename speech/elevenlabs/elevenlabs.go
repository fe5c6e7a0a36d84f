// Package elevenlabs implements speech.Synthesizer against the ElevenLabs
// text-to-speech REST API. It supports full synthesis and chunked streaming,
// with bounded retries on rate limits and transient connection failures.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/speech"
)

const baseURL = "https://api.elevenlabs.io/v1"

// Options configure the ElevenLabs client. Voice settings use the same
// 0.0-1.0 scale as the ElevenLabs UI percentages.
type Options struct {
	BaseURL         string
	APIKey          string
	VoiceID         string
	Model           string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
	MaxRetries      int
	StreamChunkSize int
	HTTPClient      *http.Client
	Logger          logging.Logger
}

// Client calls the ElevenLabs API.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     logging.Logger
}

// New creates a client. The API key defaults to the ELEVENLABS_API_KEY
// environment variable.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:         baseURL,
		APIKey:          os.Getenv("ELEVENLABS_API_KEY"),
		VoiceID:         "21m00Tcm4TlvDq8ikWAM", // Rachel
		Model:           "eleven_flash_v2_5",
		OutputFormat:    "mp3_44100_128",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		MaxRetries:      2,
		StreamChunkSize: 4096,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, opts: opts, logger: opts.Logger}
}

var _ speech.Synthesizer = (*Client)(nil)

// Configured implements speech.Synthesizer.
func (c *Client) Configured() bool { return c.opts.APIKey != "" }

type payload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func (c *Client) buildPayload(text string) payload {
	return payload{
		Text:    text,
		ModelID: c.opts.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.opts.Stability,
			SimilarityBoost: c.opts.SimilarityBoost,
			Style:           c.opts.Style,
			UseSpeakerBoost: c.opts.SpeakerBoost,
		},
	}
}

// Synthesize implements speech.Synthesizer. Rate limits (429) and connection
// errors are retried with exponential backoff up to MaxRetries.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.opts.BaseURL, url.PathEscape(c.opts.VoiceID), url.QueryEscape(c.opts.OutputFormat))
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Warn("Retrying TTS synthesis", "wait", wait, "attempt", attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.post(ctx, endpoint, text)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("elevenlabs rate limited: %s", body)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("elevenlabs api error: %d - %s", resp.StatusCode, body)
		}

		audio, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read audio: %w", err)
			continue
		}
		c.logger.Info("TTS synthesized", "chars", len(text), "bytes", len(audio), "duration", time.Since(start), "model", c.opts.Model)
		return audio, nil
	}
	return nil, fmt.Errorf("tts synthesis failed after %d attempts: %w", c.opts.MaxRetries+1, lastErr)
}

// Stream implements speech.Synthesizer using the HTTP streaming endpoint.
// Chunks are yielded as they arrive so playback can start before synthesis
// finishes.
func (c *Client) Stream(ctx context.Context, text string) (<-chan speech.Chunk, <-chan error) {
	out := make(chan speech.Chunk, 8)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s", c.opts.BaseURL, url.PathEscape(c.opts.VoiceID), url.QueryEscape(c.opts.OutputFormat))
		resp, err := c.post(ctx, endpoint, text)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errCh <- fmt.Errorf("elevenlabs stream error: %d - %s", resp.StatusCode, body)
			return
		}

		start := time.Now()
		buf := make([]byte, c.opts.StreamChunkSize)
		index := 0
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				if index == 0 {
					c.logger.Info("TTS stream first chunk", "ttfb", time.Since(start))
				}
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case out <- speech.Chunk{Data: chunk, Index: index}:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
				index++
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				errCh <- fmt.Errorf("elevenlabs stream read: %w", err)
				return
			}
		}
		out <- speech.Chunk{Index: index, Final: true}
		c.logger.Info("TTS stream complete", "chunks", index, "duration", time.Since(start))
	}()

	return out, errCh
}

// Credits returns the remaining character quota for the account.
func (c *Client) Credits(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/user/subscription", nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("check credits: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("check credits: status %d", resp.StatusCode)
	}

	var sub struct {
		CharacterCount int `json:"character_count"`
		CharacterLimit int `json:"character_limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return 0, fmt.Errorf("decode subscription: %w", err)
	}
	return sub.CharacterLimit - sub.CharacterCount, nil
}

// Voices lists the voices available to the account.
func (c *Client) Voices(ctx context.Context) ([]speech.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list voices: status %d", resp.StatusCode)
	}

	var body struct {
		Voices []speech.Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return body.Voices, nil
}

func (c *Client) post(ctx context.Context, endpoint, text string) (*http.Response, error) {
	body, err := json.Marshal(c.buildPayload(text))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
}
