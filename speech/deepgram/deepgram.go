// Package deepgram implements speech.Synthesizer against the Deepgram Speak
// REST API. It is an alternative to the ElevenLabs adapter for deployments
// that already hold Deepgram credentials.
package deepgram

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

const speakURL = "https://api.deepgram.com/v1/speak"

// Options configure the Deepgram client.
type Options struct {
	BaseURL         string
	APIKey          string
	Model           string
	Encoding        string
	StreamChunkSize int
	HTTPClient      *http.Client
	Logger          logging.Logger
}

// Client calls the Deepgram Speak API.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     logging.Logger
}

// New creates a client. The API key defaults to the DEEPGRAM_API_KEY
// environment variable.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:         speakURL,
		APIKey:          os.Getenv("DEEPGRAM_API_KEY"),
		Model:           "aura-2-thalia-en",
		Encoding:        "mp3",
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

// Synthesize implements speech.Synthesizer.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.post(ctx, text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deepgram api error: %d - %s", resp.StatusCode, body)
	}

	start := time.Now()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	c.logger.Info("TTS synthesized", "chars", len(text), "bytes", len(audio), "duration", time.Since(start), "model", c.opts.Model)
	return audio, nil
}

// Stream implements speech.Synthesizer by chunking the response body as it
// arrives.
func (c *Client) Stream(ctx context.Context, text string) (<-chan speech.Chunk, <-chan error) {
	out := make(chan speech.Chunk, 8)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := c.post(ctx, text)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errCh <- fmt.Errorf("deepgram api error: %d - %s", resp.StatusCode, body)
			return
		}

		buf := make([]byte, c.opts.StreamChunkSize)
		index := 0
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
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
				errCh <- fmt.Errorf("deepgram stream read: %w", err)
				return
			}
		}
		out <- speech.Chunk{Index: index, Final: true}
	}()

	return out, errCh
}

func (c *Client) post(ctx context.Context, text string) (*http.Response, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s?model=%s&encoding=%s", c.opts.BaseURL, url.QueryEscape(c.opts.Model), url.QueryEscape(c.opts.Encoding))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram request: %w", err)
	}
	return resp, nil
}
