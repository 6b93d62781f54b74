// Package completion provides model.Completer implementations.
package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dtroode/chatdemo-server/internal/model"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini API client. An empty Endpoint uses the
// SDK default.
type GeminiConfig struct {
	Endpoint   string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Gemini asks the Gemini API for a single text completion.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ model.Completer = (*Gemini)(nil)

// NewGemini builds a Gemini completer backed by the genai SDK.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(cfg.Endpoint),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model}, nil
}

// Complete sends prompt as one user turn and returns the text of the first
// candidate. An answer without text is returned as "".
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
