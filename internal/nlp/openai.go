package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	openAIChatEndpoint       = "https://api.openai.com/v1/chat/completions"
	openAITranscribeEndpoint = "https://api.openai.com/v1/audio/transcriptions"

	explainSystemPrompt = "Ты — опытный преподаватель разговорного иврита. " +
		"Проанализируй фразу на иврите: переведи естественно, выдели корень, биньян, " +
		"грамматическую форму глаголов; объясни сленг/идиомы и происхождение, если есть; " +
		"дай короткий пример использования."
)

// OpenAIClient implements Explainer and Transcriber against the OpenAI API.
type OpenAIClient struct {
	apiKey string
	model  string
	client *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Explain(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrPermanent)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: explainSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, langHint string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrPermanent)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "voice.ogg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	_ = form.WriteField("model", "whisper-1")
	if langHint != "" {
		_ = form.WriteField("language", langHint)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAITranscribeEndpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// do executes the request and classifies HTTP failures: 401/403/400 are
// permanent (key or request is broken, retrying won't help), the rest
// transient.
func (c *OpenAIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai read: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: openai status %d: %s", ErrPermanent, resp.StatusCode, truncate(raw, 200))
	default:
		return nil, fmt.Errorf("openai status %d", resp.StatusCode)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
