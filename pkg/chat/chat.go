package chat

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant"
	ChatRoleSystem = "system" // Instructions and context blocks
)

// ChatMessage represents a single message in an LLM conversation.
// The role values follow the OpenAI chat API and are used to structure
// messages sent to the LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
