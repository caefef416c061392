package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/handlecraft/handlecraft-backend/config"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	maxResponseBytes    = 1 << 20
)

var (
	// ErrBuildRequest means the outbound request could not be constructed.
	ErrBuildRequest = errors.New("build completion request")
	// ErrDecodeEnvelope means the API answered 2xx with a body that is not a
	// chat completion envelope.
	ErrDecodeEnvelope = errors.New("decode completion envelope")
	// ErrContentNotText means the first choice's message content is present
	// but is not a JSON string.
	ErrContentNotText = errors.New("completion content is not a string")
)

// DeepSeekClient calls the DeepSeek chat completions endpoint.
type DeepSeekClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewDeepSeek(cfg config.DeepSeekConfig) *DeepSeekClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DeepSeekClient{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Messages       []ChatMessage   `json:"messages"`
}

type ChatCompletionResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// Content returns the first choice's message content. It is "" when the
// envelope carries no choices or the content is missing or null, and
// ErrContentNotText when the content is any other non-string value.
func (r *ChatCompletionResponse) Content() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", nil
	}
	raw := bytes.TrimSpace(r.Choices[0].Message.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("%w: %s", ErrContentNotText, kindOf(raw))
	}
	return text, nil
}

func kindOf(raw []byte) string {
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// StatusError is a non-success HTTP answer from the completion API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepseek status %d: %s", e.StatusCode, e.Message)
}

// NewJSONRequest builds a JSON-mode request from a system and a user
// instruction.
func NewJSONRequest(model string, temperature float64, system, user string) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:          model,
		Temperature:    temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
}

// Complete performs one chat completion call. It does not retry.
func (c *DeepSeekClient) Complete(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrBuildRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+chatCompletionsPath, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepseek request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp),
		}
	}

	var out ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeEnvelope, err)
	}
	return &out, nil
}

// errorMessage pulls error.message out of an API error body, falling back
// to the HTTP status text.
func errorMessage(body []byte, resp *http.Response) string {
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		if msg := strings.TrimSpace(payload.Error.Message); msg != "" {
			return msg
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
}

// IsTimeout reports whether err came from the client timeout or a context
// deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
