package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const myMemoryEndpoint = "https://api.mymemory.translated.net/get"

// MyMemoryTranslator calls the public MyMemory translation API.
type MyMemoryTranslator struct {
	client *http.Client
}

func NewMyMemoryTranslator() *MyMemoryTranslator {
	return &MyMemoryTranslator{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

func (t *MyMemoryTranslator) Translate(ctx context.Context, text, sourceHint string) (string, error) {
	src := sourceHint
	if src == "" || src == "auto" {
		src = "he"
	}

	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", src+"|ru")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, myMemoryEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("mymemory status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: mymemory status %d", ErrPermanent, resp.StatusCode)
	}

	var parsed myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("mymemory decode: %w", err)
	}
	if parsed.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("mymemory empty translation: %s", parsed.ResponseDetails)
	}
	return parsed.ResponseData.TranslatedText, nil
}
