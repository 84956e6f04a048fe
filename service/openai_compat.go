package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatService talks to any OpenAI-compatible chat completions
// endpoint over plain HTTP. Some local servers answer with
// choices[0].message.content and others with choices[0].text, so the
// response is probed for both shapes.
type OpenAICompatService struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
}

func NewOpenAICompatService(baseURL, apiKey, model string, timeout time.Duration, maxRetries int) *OpenAICompatService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OpenAICompatService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

func (s *OpenAICompatService) CreateCompletion(ctx context.Context, req ChatRequest) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying chat completion, attempt %d: %v", attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		text, retryable, err := s.post(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// post makes one request. The second return value reports whether the
// failure is worth retrying.
func (s *OpenAICompatService) post(ctx context.Context, payload []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}
	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, errors.New("no response generated")
	}
	if content := parsed.Choices[0].Message.Content; content != "" {
		return content, false, nil
	}
	if text := parsed.Choices[0].Text; text != "" {
		return text, false, nil
	}
	return "", false, errors.New("chat response has no message content or text")
}
