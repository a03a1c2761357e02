package gemini

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
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	// maxEventBytes bounds a single SSE line; Gemini sends one candidate
	// delta per event so this is generous.
	maxEventBytes = 1 << 20
)

// ErrEmptyStream is reported when the provider closes the stream without
// producing any text.
var ErrEmptyStream = errors.New("gemini returned an empty stream")

// Client is a minimal Gemini REST client for streamed text generation.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	httpDo  *http.Client
}

var _ llm.StreamingModel = (*Client)(nil)

// New creates a client. No request timeout is set: page streams can run for
// as long as the model keeps producing, and callers cancel through ctx.
func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		httpDo:  &http.Client{},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Stream submits prompt and relays generated text as it arrives. The call
// returns once the provider has accepted the request; errors after that point
// are delivered as the final event on the channel.
func (c *Client) Stream(ctx context.Context, prompt string) (<-chan llm.StreamEvent, error) {
	if c.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	data, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.BaseURL, c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	ch := make(chan llm.StreamEvent)
	go relay(ctx, resp.Body, ch)
	return ch, nil
}

// Ping checks that the configured model exists and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if c.APIKey == "" {
		return errors.New("gemini api key is empty")
	}
	endpoint := fmt.Sprintf("%s/models/%s", c.BaseURL, c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)
	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
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
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	chunks := 0
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		text, err := decodeEvent([]byte(data))
		if err != nil {
			send(llm.StreamEvent{Err: err})
			return
		}
		if text == "" {
			continue
		}
		chunks++
		if !send(llm.StreamEvent{Text: text}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		// A cancelled request surfaces here as a read error; the consumer
		// is gone so there is nobody to report it to.
		if ctx.Err() == nil {
			send(llm.StreamEvent{Err: fmt.Errorf("gemini stream: %w", err)})
		}
		return
	}
	if chunks == 0 {
		send(llm.StreamEvent{Err: ErrEmptyStream})
	}
}

func decodeEvent(data []byte) (string, error) {
	var ev generateResponse
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", fmt.Errorf("gemini stream: malformed event: %w", err)
	}
	if ev.Error != nil {
		return "", fmt.Errorf("gemini stream: %s", ev.Error.Message)
	}
	if ev.PromptFeedback != nil && ev.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", ev.PromptFeedback.BlockReason)
	}
	if len(ev.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, p := range ev.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// statusError turns a non-2xx response into an error, using the provider's
// message when the body carries one. Streaming endpoints wrap the error
// object in a JSON array.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var single struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Error != nil && single.Error.Message != "" {
		return fmt.Errorf("gemini http %d: %s", resp.StatusCode, single.Error.Message)
	}
	var list []struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].Error != nil {
		return fmt.Errorf("gemini http %d: %s", resp.StatusCode, list[0].Error.Message)
	}
	return fmt.Errorf("gemini http %d", resp.StatusCode)
}
