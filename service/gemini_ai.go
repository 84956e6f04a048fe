package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:    apiKeys,
		currentKey: 0,
		modelName:  modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		return err
	}
	return s.initClient()
}

func (s *GeminiService) CreateCompletion(ctx context.Context, req ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.generate(ctx, req)
	if err != nil {
		// Try rotating API key if there's an error
		if rerr := s.rotateAPIKey(); rerr != nil {
			return "", rerr
		}
		resp, err = s.generate(ctx, req)
		if err != nil {
			return "", err
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response generated")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no response generated")
	}
	return sb.String(), nil
}

func (s *GeminiService) generate(ctx context.Context, req ChatRequest) (*genai.GenerateContentResponse, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(req.Temperature)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	return model.GenerateContent(ctx, genai.Text(req.User))
}
