package chat

const (
	RoleSystem = "system" // instructions for the model
	RoleUser   = "user"   // payload from the room
)

// Message is a single chat-completion message. The shape is defined by the
// OpenAI-compatible /chat/completions API and is used verbatim on the wire.
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
