package client

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"collabx/domain/chat"
	"collabx/gateway"
)

type fakeEmitter struct {
	events   []string
	payloads []any
	err      error
}

func (e *fakeEmitter) Emit(event string, payload any) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	e.payloads = append(e.payloads, payload)
	return nil
}

type fakeFetcher struct {
	threads []chat.Thread
	err     error
	calls   int
}

func (f *fakeFetcher) FetchThreads() ([]chat.Thread, error) {
	f.calls++
	return f.threads, f.err
}

var (
	self = chat.Participant{ID: "alice", Kind: chat.KindStartup, Name: "Alice"}
	peer = chat.Participant{ID: "bob", Kind: chat.KindCorporate, Name: "Bob"}
)

func newTestController(emitter *fakeEmitter, fetcher *fakeFetcher) *Controller {
	return NewController(self, emitter, fetcher, slog.Default())
}

func Test_SendMessage_Appends_Optimistically(t *testing.T) {
	req := require.New(t)
	emitter := &fakeEmitter{}
	ctrl := newTestController(emitter, &fakeFetcher{})
	ctrl.StartConversationWith(peer)

	tempID := ctrl.SendMessage("hello bob")

	// The message shows up immediately, before any server round trip
	req.True(strings.HasPrefix(tempID, TempIDPrefix))
	req.True(ctrl.IsPending(tempID))
	active, ok := ctrl.Active()
	req.True(ok)
	req.Len(active.Messages, 1)
	req.Equal("hello bob", active.Messages[0].Content)
	req.Equal(tempID, active.Messages[0].ID)

	// And the wire event carries the correlation token
	req.Equal([]string{gateway.EventSendMessage}, emitter.events)
	payload := emitter.payloads[0].(gateway.SendMessagePayload)
	req.Equal("bob", payload.RecipientID)
	req.Equal(tempID, payload.ClientTempID)
}

func Test_SendMessage_Blank_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	emitter := &fakeEmitter{}
	ctrl := newTestController(emitter, &fakeFetcher{})
	ctrl.StartConversationWith(peer)

	req.Empty(ctrl.SendMessage("   "))
	req.Empty(emitter.events)
	active, _ := ctrl.Active()
	req.Empty(active.Messages)
}

func Test_SendMessage_Without_Active_Conversation(t *testing.T) {
	req := require.New(t)
	emitter := &fakeEmitter{}
	ctrl := newTestController(emitter, &fakeFetcher{})

	req.Empty(ctrl.SendMessage("hello"))
	req.Empty(emitter.events)
}

func Test_Confirmation_Replaces_Optimistic_Message_In_Place(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.StartConversationWith(peer)
	tempID := ctrl.SendMessage("hello bob")

	active, _ := ctrl.Active()
	ctrl.HandleMessageSent(gateway.MessageSentPayload{
		ThreadID: active.ID,
		Message: chat.Message{
			ID:       "srv-1",
			SenderID: self.ID,
			Content:  "hello bob",
			SentAt:   time.Now().UTC(),
		},
		RecipientID:  "bob",
		ClientTempID: tempID,
	})

	confirmed, _ := ctrl.Active()
	req.Len(confirmed.Messages, 1)
	req.Equal("srv-1", confirmed.Messages[0].ID)
	req.False(ctrl.IsPending(tempID))
}

func Test_Confirmation_Adopts_Server_Thread_ID(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})

	// Given a brand new conversation with a placeholder thread
	ctrl.StartConversationWith(peer)
	active, _ := ctrl.Active()
	req.True(strings.HasPrefix(active.ID, TempIDPrefix))
	tempID := ctrl.SendMessage("first contact")

	// When the server confirms with the real thread id
	ctrl.HandleMessageSent(gateway.MessageSentPayload{
		ThreadID:     "thread-42",
		Message:      chat.Message{ID: "srv-1", SenderID: self.ID, Content: "first contact", SentAt: time.Now().UTC()},
		ClientTempID: tempID,
	})

	// Then the placeholder id is gone
	adopted, _ := ctrl.Active()
	req.Equal("thread-42", adopted.ID)
	req.Equal("srv-1", adopted.Messages[0].ID)
}

func Test_Duplicate_Confirmation_Does_Not_Duplicate_Message(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.StartConversationWith(peer)
	tempID := ctrl.SendMessage("hello bob")

	active, _ := ctrl.Active()
	payload := gateway.MessageSentPayload{
		ThreadID:     active.ID,
		Message:      chat.Message{ID: "srv-1", SenderID: self.ID, Content: "hello bob", SentAt: time.Now().UTC()},
		ClientTempID: tempID,
	}
	ctrl.HandleMessageSent(payload)
	ctrl.HandleMessageSent(payload)

	confirmed, _ := ctrl.Active()
	req.Len(confirmed.Messages, 1)
}

func Test_Confirmation_For_Background_Thread_Clears_Pending(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.StartConversationWith(peer)
	tempID := ctrl.SendMessage("hello bob")

	// Given the user navigated to another conversation before the answer
	carol := chat.Participant{ID: "carol", Kind: chat.KindCorporate, Name: "Carol"}
	ctrl.OpenConversation(chat.Thread{ID: "thread-99", Participants: []chat.Participant{self, carol}})

	// When the confirmation for the backgrounded send arrives
	ctrl.HandleMessageSent(gateway.MessageSentPayload{
		ThreadID:     "thread-42",
		Message:      chat.Message{ID: "srv-1", SenderID: self.ID, Content: "hello bob", SentAt: time.Now().UTC()},
		ClientTempID: tempID,
	})

	// Then the correlation entry is released and the open thread untouched
	req.False(ctrl.IsPending(tempID))
	active, _ := ctrl.Active()
	req.Equal("thread-99", active.ID)
	req.Empty(active.Messages)
}

func Test_Error_Rolls_Back_Optimistic_Message(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.StartConversationWith(peer)

	var surfaced string
	ctrl.SetErrorHandler(func(message string) { surfaced = message })

	tempID := ctrl.SendMessage("hello bob")
	ctrl.HandleError(gateway.ErrorPayload{
		Message:      "failed to send message: recipient ID and content are required",
		ClientTempID: tempID,
	})

	active, _ := ctrl.Active()
	req.Empty(active.Messages)
	req.False(ctrl.IsPending(tempID))
	req.Contains(surfaced, "failed to send message")
}

func Test_Error_Without_Temp_ID_Only_Surfaces(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.StartConversationWith(peer)
	ctrl.SendMessage("hello bob")

	var surfaced string
	ctrl.SetErrorHandler(func(message string) { surfaced = message })
	ctrl.HandleError(gateway.ErrorPayload{Message: "internal error"})

	active, _ := ctrl.Active()
	req.Len(active.Messages, 1)
	req.Equal("internal error", surfaced)
}

func Test_Emit_Failure_Keeps_Message_Pending(t *testing.T) {
	req := require.New(t)
	emitter := &fakeEmitter{err: errors.New("connection lost")}
	ctrl := newTestController(emitter, &fakeFetcher{})
	ctrl.StartConversationWith(peer)

	tempID := ctrl.SendMessage("hello bob")

	// The optimistic copy stays visible and pending until the server answers
	req.True(ctrl.IsPending(tempID))
	active, _ := ctrl.Active()
	req.Len(active.Messages, 1)
}

func Test_ReceiveMessage_Appends_To_Active_Conversation(t *testing.T) {
	req := require.New(t)
	fetcher := &fakeFetcher{}
	ctrl := newTestController(&fakeEmitter{}, fetcher)
	ctrl.OpenConversation(chat.Thread{ID: "thread-42", Participants: []chat.Participant{self, peer}})

	at := time.Now().UTC()
	ctrl.HandleReceiveMessage(gateway.ReceiveMessagePayload{
		ThreadID:   "thread-42",
		Message:    chat.Message{ID: "srv-9", SenderID: peer.ID, Content: "hi alice", SentAt: at},
		SenderID:   "bob",
		SenderName: "Bob",
	})

	active, _ := ctrl.Active()
	req.Len(active.Messages, 1)
	req.Equal("hi alice", active.Messages[0].Content)
	req.Equal(at, active.LastActivityAt)
	req.Equal(1, fetcher.calls)
}

func Test_ReceiveMessage_For_Other_Thread_Is_Ignored(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})
	ctrl.OpenConversation(chat.Thread{ID: "thread-42", Participants: []chat.Participant{self, peer}})

	ctrl.HandleReceiveMessage(gateway.ReceiveMessagePayload{
		ThreadID: "thread-77",
		Message:  chat.Message{ID: "srv-9", SenderID: "carol", Content: "wrong window", SentAt: time.Now().UTC()},
	})

	active, _ := ctrl.Active()
	req.Empty(active.Messages)
}

func Test_StartConversationWith_Reuses_Existing_Thread(t *testing.T) {
	req := require.New(t)
	existing := chat.Thread{
		ID:           "thread-42",
		Participants: []chat.Participant{self, peer},
		Messages:     []chat.Message{{ID: "srv-1", SenderID: peer.ID, Content: "earlier", SentAt: time.Now().UTC()}},
	}
	fetcher := &fakeFetcher{threads: []chat.Thread{existing}}
	ctrl := newTestController(&fakeEmitter{}, fetcher)
	req.NoError(ctrl.RefreshThreads())

	ctrl.StartConversationWith(peer)

	active, ok := ctrl.Active()
	req.True(ok)
	req.Equal("thread-42", active.ID)
	req.Len(active.Messages, 1)
}

func Test_StartConversationWith_Unknown_Peer_Builds_Placeholder(t *testing.T) {
	req := require.New(t)
	ctrl := newTestController(&fakeEmitter{}, &fakeFetcher{})

	ctrl.StartConversationWith(peer)

	active, ok := ctrl.Active()
	req.True(ok)
	req.True(strings.HasPrefix(active.ID, TempIDPrefix))
	req.Empty(active.Messages)
	req.True(active.HasParticipant(self.ID))
	req.True(active.HasParticipant(peer.ID))
}
