// Package actions collects example forge.Action implementations: LLM
// provider adapters and an HTTP action, adapted from the teacher's model/
// and tool/ packages to Forge's single RunAction entrypoint.
package actions

// Message is one turn of an LLM conversation, the common shape all three
// provider adapters translate to and from.
type Message struct {
	Role    string
	Content string
}

// Standard roles, aligned with the major providers' conventions.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatInput is the declared forge.ActionDefinition.InputType for every LLM
// action in this package: a system prompt plus the conversation turns.
type ChatInput struct {
	System   string
	Messages []Message
}

// ChatOutput is the ActionResponse.Data shape an LLM action commits: every
// provider adapter in this package builds one from its response text before
// committing it.
type ChatOutput struct {
	Text string
}
