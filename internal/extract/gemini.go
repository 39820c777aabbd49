package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator calls the Gemini API. The API key comes from the
// environment (GEMINI_API_KEY) or an explicit client config.
type GeminiGenerator struct {
	client *genai.Client
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates the underlying genai client.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, model string, req Request) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Doc != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Doc.MIMEType,
				Data:     req.Doc.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var cfg *genai.GenerateContentConfig
	if req.ForceJSON || req.ThinkingBudget != nil {
		cfg = &genai.GenerateContentConfig{}
		if req.ForceJSON {
			cfg.ResponseMIMEType = "application/json"
		}
		if req.ThinkingBudget != nil {
			cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: req.ThinkingBudget}
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("extract: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("extract: empty response from model %s", model)
	}
	return text, nil
}
