package service

import (
	"context"
)

// ChatRequest is a single system+user exchange sent to a chat model.
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
}

type AIService interface {
	CreateCompletion(ctx context.Context, req ChatRequest) (string, error)
}
