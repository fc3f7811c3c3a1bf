package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	googleoption "google.golang.org/api/option"

	"github.com/forgetree/forge"
)

// GeminiAction is a forge.Action that sends ActionContext.Input (a
// ChatInput) to Google's Gemini API (ported from the teacher's model/google
// adapter). System content is passed through genai's SystemInstruction
// rather than folded into the conversation parts.
type GeminiAction struct {
	APIKey    string
	ModelName string
}

// NewGeminiAction constructs a GeminiAction. An empty modelName falls back
// to "gemini-2.5-flash".
func NewGeminiAction(apiKey, modelName string) *GeminiAction {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiAction{APIKey: apiKey, ModelName: modelName}
}

// RunAction implements forge.Action.
func (a *GeminiAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return forge.ActionResponse{}, err
	}
	if a.APIKey == "" {
		return forge.ActionResponse{}, fmt.Errorf("actions: google API key is required")
	}

	input, ok := actx.Input.(ChatInput)
	if !ok {
		return forge.ActionResponse{}, fmt.Errorf("actions: GeminiAction expects ChatInput, got %T", actx.Input)
	}

	client, err := genai.NewClient(ctx, googleoption.WithAPIKey(a.APIKey))
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: create google client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(a.ModelName)
	if input.System != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(input.System)}}
	}

	var parts []genai.Part
	for _, m := range input.Messages {
		if m.Content != "" {
			parts = append(parts, genai.Text(m.Content))
		}
	}

	resp, err := genModel.GenerateContent(ctx, parts...)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: gemini request: %w", err)
	}

	var sb strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, p := range cand.Content.Parts {
				if t, ok := p.(genai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}

	out := ChatOutput{Text: sb.String()}
	return forge.ActionResponse{
		Status: "OK",
		Data:   forge.ObjectValue(map[string]forge.SchemaValue{"text": forge.StringValue(out.Text)}),
	}, nil
}
