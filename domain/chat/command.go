package chat

// SendMessageCommand carries one message sending intent from the gateway
// to the chat service. Sender identity comes from the authenticated
// connection, never from the payload.
type SendMessageCommand struct {
	Sender       Participant
	Recipient    Participant
	Content      string
	ClientTempID string
}
