package chat

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when neither the client nor the request names one.
const DefaultGeminiModel = "gemini-2.5-flash"

// GenAIClient runs completions against the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient wraps a genai client. The same client can back the
// retrieval embedder.
func NewGenAIClient(client *genai.Client, model string) *GenAIClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GenAIClient{client: client, model: model}
}

// Complete implements Completer.
func (c *GenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini completion: %w", err)
	}

	text, err := checkText(resp.Text())
	if err != nil {
		return Response{}, err
	}

	out := Response{Text: text}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	return out, nil
}
