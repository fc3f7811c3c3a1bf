package actions

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/forgetree/forge"
)

// AnthropicAction is a forge.Action that sends ActionContext.Input (a
// ChatInput) to Anthropic's Messages API and commits the reply as a
// ChatOutput (ported from the teacher's model/anthropic adapter, collapsed
// into Forge's single RunAction entrypoint since Forge actions have no
// separate tool-calling contract).
type AnthropicAction struct {
	APIKey    string
	ModelName string
}

// NewAnthropicAction constructs an AnthropicAction. An empty modelName falls
// back to the current default Sonnet model.
func NewAnthropicAction(apiKey, modelName string) *AnthropicAction {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &AnthropicAction{APIKey: apiKey, ModelName: modelName}
}

// RunAction implements forge.Action.
func (a *AnthropicAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return forge.ActionResponse{}, err
	}
	if a.APIKey == "" {
		return forge.ActionResponse{}, fmt.Errorf("actions: anthropic API key is required")
	}

	input, ok := actx.Input.(ChatInput)
	if !ok {
		return forge.ActionResponse{}, fmt.Errorf("actions: AnthropicAction expects ChatInput, got %T", actx.Input)
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(a.APIKey))

	messages := make([]anthropicsdk.MessageParam, len(input.Messages))
	for i, m := range input.Messages {
		switch m.Role {
		case RoleAssistant:
			messages[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content))
		default:
			messages[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content))
		}
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.ModelName),
		Messages:  messages,
		MaxTokens: 4096,
	}
	if input.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: input.System}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: anthropic request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}

	out := ChatOutput{Text: text}
	return forge.ActionResponse{
		Status: "OK",
		Data:   forge.ObjectValue(map[string]forge.SchemaValue{"text": forge.StringValue(out.Text)}),
	}, nil
}
