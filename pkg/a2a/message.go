package a2a

import (
	"strings"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation produced a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

/*
Message represents all non-artifact communication between client and agent.
A Message is immutable once published; continuing a conversation means
sending a new Message that references the same task or context.
*/
type Message struct {
	MessageID        string         `json:"messageId"`
	Role             Role           `json:"role"`
	Parts            []Part         `json:"parts"`
	ContextID        string         `json:"contextId,omitempty"`
	TaskID           string         `json:"taskId,omitempty"`
	ReferenceTaskIDs []string       `json:"referenceTaskIds,omitempty"`
	Extensions       []string       `json:"extensions,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

func NewTextMessage(role Role, text string) *Message {
	return &Message{
		MessageID: uuid.New().String(),
		Role:      role,
		Parts: []Part{
			{Kind: PartKindText, Text: text},
		},
	}
}

func NewFileMessage(role Role, file *FilePart) *Message {
	return &Message{
		MessageID: uuid.New().String(),
		Role:      role,
		Parts: []Part{
			{Kind: PartKindFile, File: file},
		},
	}
}

func NewDataMessage(role Role, data map[string]any) *Message {
	return &Message{
		MessageID: uuid.New().String(),
		Role:      role,
		Parts: []Part{
			{Kind: PartKindData, Data: data},
		},
	}
}

// String concatenates all text parts, which is what most log lines and
// terminal output want.
func (msg *Message) String() string {
	var sb strings.Builder

	for _, part := range msg.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String()
}
