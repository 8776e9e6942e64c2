package gateway

import (
	"encoding/json"

	"collabx/domain/chat"
)

// Wire event names. These are the realtime contract shared with clients;
// renaming any of them is a breaking change.
const (
	EventSendMessage       = "send_message"
	EventReceiveMessage    = "receive_message"
	EventMessageSent       = "message_sent"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventError             = "error"
)

// Envelope frames every message on the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// SendMessagePayload is the client→server body of send_message.
type SendMessagePayload struct {
	RecipientID   string `json:"recipientId"`
	RecipientKind string `json:"recipientKind,omitempty"`
	Content       string `json:"content"`
	RecipientName string `json:"recipientName,omitempty"`
	SenderName    string `json:"senderName,omitempty"`
	ClientTempID  string `json:"clientTempId,omitempty"`
}

// ReceiveMessagePayload is the server→recipient body of receive_message.
type ReceiveMessagePayload struct {
	ThreadID   string       `json:"threadId"`
	Message    chat.Message `json:"message"`
	SenderID   string       `json:"senderId"`
	SenderName string       `json:"senderName"`
}

// MessageSentPayload is the server→sender confirmation, carrying the
// persisted message and the client's correlation token.
type MessageSentPayload struct {
	ThreadID     string       `json:"threadId"`
	Message      chat.Message `json:"message"`
	RecipientID  string       `json:"recipientId"`
	ClientTempID string       `json:"clientTempId,omitempty"`
}

// TypingPayload is the client→server body of typing_start / typing_stop.
type TypingPayload struct {
	RecipientID string `json:"recipientId"`
}

// PresencePayload is the server→recipient body of user_typing and
// user_stopped_typing.
type PresencePayload struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
}

// ErrorPayload is delivered only to the connection whose event failed.
type ErrorPayload struct {
	Message      string `json:"message"`
	ClientTempID string `json:"clientTempId,omitempty"`
}
