package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/artem13815/pagegen/pkg/llm"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.0-flash-001"
)

// Client is a minimal OpenRouter (OpenAI-compatible) streaming chat
// completions client.
type Client struct {
	APIKey   string
	BaseURL  string
	Model    string
	AppTitle string
	Referer  string
	httpDo   *http.Client
}

var _ llm.StreamingModel = (*Client)(nil)

func New(apiKey, baseURL, model, appTitle, referer string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		APIKey:   apiKey,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Model:    model,
		AppTitle: appTitle,
		Referer:  referer,
		httpDo:   &http.Client{},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatCompletionsChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Stream sends the prompt as a single user message and relays content
// deltas as they arrive.
func (c *Client) Stream(ctx context.Context, prompt string) (<-chan llm.StreamEvent, error) {
	if c.APIKey == "" {
		return nil, errors.New("openrouter api key is empty")
	}
	data, err := json.Marshal(chatCompletionsRequest{
		Model:    c.Model,
		Messages: []message{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	ch := make(chan llm.StreamEvent)
	go relay(ctx, resp.Body, ch)
	return ch, nil
}

// Ping checks that the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if c.APIKey == "" {
		return errors.New("openrouter api key is empty")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/key", nil)
	if err != nil {
		return err
	}
	c.authorize(httpReq)
	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Referer)
	}
	if c.AppTitle != "" {
		req.Header.Set("X-Title", c.AppTitle)
	}
}

func relay(ctx context.Context, body io.ReadCloser, ch chan<- llm.StreamEvent) {
	defer close(ch)
	defer body.Close()

	send := func(ev llm.StreamEvent) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	chunks := 0
	for scanner.Scan() {
		// OpenRouter interleaves ": OPENROUTER PROCESSING" comments; only
		// data lines matter.
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}
		if data == "" {
			continue
		}
		var chunk chatCompletionsChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			send(llm.StreamEvent{Err: fmt.Errorf("openrouter stream: malformed event: %w", err)})
			return
		}
		if chunk.Error != nil {
			send(llm.StreamEvent{Err: fmt.Errorf("openrouter stream: %s", chunk.Error.Message)})
			return
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		chunks++
		if !send(llm.StreamEvent{Text: chunk.Choices[0].Delta.Content}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() == nil {
			send(llm.StreamEvent{Err: fmt.Errorf("openrouter stream: %w", err)})
		}
		return
	}
	if chunks == 0 {
		send(llm.StreamEvent{Err: errors.New("no content returned by model")})
	}
}

func statusError(resp *http.Response) error {
	var errMap map[string]any
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&errMap)
	if e, ok := errMap["error"].(map[string]any); ok {
		if msg, ok := e["message"].(string); ok && msg != "" {
			return fmt.Errorf("openrouter http %d: %s", resp.StatusCode, msg)
		}
	}
	return fmt.Errorf("openrouter http %d", resp.StatusCode)
}
