package actions

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/forgetree/forge"
)

// OpenAIAction is a forge.Action that sends ActionContext.Input (a
// ChatInput) to OpenAI's Chat Completions API (ported from the teacher's
// model/openai adapter).
type OpenAIAction struct {
	APIKey    string
	ModelName string
}

// NewOpenAIAction constructs an OpenAIAction. An empty modelName falls back
// to "gpt-4o".
func NewOpenAIAction(apiKey, modelName string) *OpenAIAction {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &OpenAIAction{APIKey: apiKey, ModelName: modelName}
}

// RunAction implements forge.Action.
func (a *OpenAIAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return forge.ActionResponse{}, err
	}
	if a.APIKey == "" {
		return forge.ActionResponse{}, fmt.Errorf("actions: OpenAI API key is required")
	}

	input, ok := actx.Input.(ChatInput)
	if !ok {
		return forge.ActionResponse{}, fmt.Errorf("actions: OpenAIAction expects ChatInput, got %T", actx.Input)
	}

	client := openaisdk.NewClient(option.WithAPIKey(a.APIKey))

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(input.Messages)+1)
	if input.System != "" {
		messages = append(messages, openaisdk.SystemMessage(input.System))
	}
	for _, m := range input.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(a.ModelName),
		Messages: messages,
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return forge.ActionResponse{}, fmt.Errorf("actions: openai request: %w", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	out := ChatOutput{Text: text}
	return forge.ActionResponse{
		Status: "OK",
		Data:   forge.ObjectValue(map[string]forge.SchemaValue{"text": forge.StringValue(out.Text)}),
	}, nil
}
