/*
Package chat contains the client side of the chat protocol: the envelope types exchanged
over the WebSocket, the connection pumps, and the Session that owns the local user's
state and turns inbound events into render calls.

This file defines the wire envelopes.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"strconv"

	"wschat/internal/app/user"
	"wschat/internal/pkg/errs"
)

// MessageType identifies the kind of an envelope.
type MessageType string

// Inbound message types sent by the server.
const (
	TypeLogin          MessageType = "login"
	TypeChatHistory    MessageType = "chat_history"
	TypeUserListUpdate MessageType = "user_list_update"
	TypeSystemMessage  MessageType = "system_message"
	TypeChatMessage    MessageType = "chat_message"
)

// TypeMessage is the outbound type used to publish a chat message.
const TypeMessage MessageType = "message"

// Timestamp is the server-formatted time of a chat message. Servers send either a
// preformatted string or a number; both are kept as text and rendered verbatim.
type Timestamp string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*t = Timestamp(data)
	return nil
}

// ChatMessage is a message published by a participant.
type ChatMessage struct {
	Sender    user.User `json:"sender"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// InboundEnvelope is the union of every field an inbound envelope can carry.
// Which fields are meaningful depends on Type.
type InboundEnvelope struct {
	Type MessageType `json:"type"`

	// user_list_update
	Users []user.User `json:"users,omitempty"`

	// system_message and chat_message
	Content string `json:"content,omitempty"`

	// chat_message
	Sender    user.User `json:"sender"`
	Timestamp Timestamp `json:"timestamp,omitempty"`

	// chat_history
	Messages []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage returns the chat_message fields as a ChatMessage.
func (e InboundEnvelope) ChatMessage() ChatMessage {
	return ChatMessage{
		Sender:    e.Sender,
		Content:   e.Content,
		Timestamp: e.Timestamp,
	}
}

// ParseEnvelope decodes a text frame into an InboundEnvelope.
func ParseEnvelope(data []byte) (InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return InboundEnvelope{}, errs.NewError(errs.ErrInvalidFrame, err.Error())
	}

	if env.Type == "" {
		return InboundEnvelope{}, errs.NewError(errs.ErrInvalidFrame, "missing type")
	}

	return env, nil
}

// OutboundEnvelope is the {type, payload} shape the client sends.
type OutboundEnvelope struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// LoginPayload announces the local user right after the socket opens.
type LoginPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TextPayload carries the content of an outbound chat message.
type TextPayload struct {
	Content string `json:"content"`
}

// NewLoginEnvelope builds the login envelope for u.
func NewLoginEnvelope(u user.User) OutboundEnvelope {
	return OutboundEnvelope{
		Type:    TypeLogin,
		Payload: LoginPayload{Name: u.Name, Color: u.Color},
	}
}

// NewTextEnvelope builds the envelope publishing content.
func NewTextEnvelope(content string) OutboundEnvelope {
	return OutboundEnvelope{
		Type:    TypeMessage,
		Payload: TextPayload{Content: content},
	}
}
