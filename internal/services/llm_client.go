package services

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// GeminiTextService adapts the Gemini SDK to the single-method
// TextGenerator contract the orchestrator consumes. Temperature and
// output cap are fixed at construction so every call is bounded.
type GeminiTextService struct {
	model *genai.GenerativeModel
}

func NewGeminiTextService(client *genai.Client, modelName string, temperature float32, maxOutputTokens int32) *GeminiTextService {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)
	return &GeminiTextService{model: model}
}

func (s *GeminiTextService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("upstream generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("upstream returned no candidates")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("upstream returned a non-text part")
	}
	return string(text), nil
}
