// Package model holds the conversation records shared by the prompt, client and service layers.
package model

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one conversational turn.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// MessageChunk is a streaming delta, it is relayed but never stored.
type MessageChunk struct {
	Content string `json:"content"`
}

// Summary is the compressed record of a closed conversation.
type Summary struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type ActionResponse struct {
	ActionName       string `json:"actionName"`
	ChatMessage      string `json:"chatMessage"`
	ChatMessageClass string `json:"chatMessageClass"`
}
