// Package client holds the per-session view of a user's conversations:
// thread list, active conversation, and optimistic sending with
// reconciliation against server confirmations.
package client

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"collabx/domain/chat"
	"collabx/gateway"
)

// TempIDPrefix marks locally generated identifiers, both for placeholder
// threads and for optimistic messages, so they can never collide with
// server-assigned ids.
const TempIDPrefix = "temp_"

// reconcileTolerance bounds the timestamp distance under which a confirmed
// message with identical content is considered the same message.
const reconcileTolerance = time.Second

// Emitter sends one named event to the gateway.
type Emitter interface {
	Emit(event string, payload any) error
}

// ThreadFetcher reloads the thread summary list, typically via GET /api/chats.
type ThreadFetcher interface {
	FetchThreads() ([]chat.Thread, error)
}

// Controller drives one user's chat session. Event handlers and local
// sends may interleave arbitrarily; all state is guarded by one mutex and
// reconciliation is keyed on clientTempId with a content+timestamp
// fallback against duplicates.
//
// Every outgoing message follows exactly one path:
// composed → pending → confirmed | rolled-back.
type Controller struct {
	mu sync.Mutex

	self    chat.Participant
	emitter Emitter
	fetcher ThreadFetcher
	log     *slog.Logger

	threads []chat.Thread
	active  *chat.Thread
	pending map[string]struct{}

	onError func(message string)
}

func NewController(self chat.Participant, emitter Emitter, fetcher ThreadFetcher, log *slog.Logger) *Controller {
	return &Controller{
		self:    self,
		emitter: emitter,
		fetcher: fetcher,
		log:     log,
		pending: make(map[string]struct{}),
	}
}

// SetErrorHandler registers the callback surfacing send failures to the user.
func (c *Controller) SetErrorHandler(fn func(message string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Threads returns the current thread list, most recent activity first.
func (c *Controller) Threads() []chat.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Thread, len(c.threads))
	copy(out, c.threads)
	return out
}

// Active returns a copy of the open conversation, if any.
func (c *Controller) Active() (chat.Thread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return chat.Thread{}, false
	}
	return copyThread(*c.active), true
}

// IsPending reports whether a message id still awaits confirmation.
func (c *Controller) IsPending(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[messageID]
	return ok
}

// RefreshThreads reloads the thread list from the fetcher.
func (c *Controller) RefreshThreads() error {
	threads, err := c.fetcher.FetchThreads()
	if err != nil {
		return err
	}
	normalized := lo.Map(threads, func(t chat.Thread, _ int) chat.Thread {
		return normalizeThread(t)
	})

	c.mu.Lock()
	c.threads = normalized
	c.mu.Unlock()
	return nil
}

// OpenConversation makes the thread the active conversation. Ids are
// normalized on this boundary crossing: the transport may have delivered
// them in more than one representation.
func (c *Controller) OpenConversation(thread chat.Thread) {
	normalized := normalizeThread(thread)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &normalized
}

// StartConversationWith opens the existing thread with the peer when one
// is known, or builds a placeholder thread with a temporary id so the UI
// can render an empty conversation before any message is sent.
func (c *Controller) StartConversationWith(peer chat.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && c.active.HasParticipant(peer.ID) {
		return
	}
	for _, t := range c.threads {
		if t.HasParticipant(peer.ID) && t.HasParticipant(c.self.ID) {
			opened := copyThread(t)
			c.active = &opened
			return
		}
	}

	c.active = &chat.Thread{
		ID:           TempIDPrefix + uuid.NewString(),
		Participants: []chat.Participant{c.self, peer},
	}
}

// SendMessage appends an optimistic message to the active conversation
// and emits send_message carrying its temporary id as clientTempId. The
// UI never waits for a round trip to show the sender's own message.
// Empty or whitespace-only text is a silent no-op.
//
// The returned id is the temporary message id, empty when nothing was sent.
func (c *Controller) SendMessage(text string) string {
	content := strings.TrimSpace(text)
	if content == "" {
		return ""
	}

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return ""
	}
	peer, ok := c.active.Peer(c.self.ID)
	if !ok {
		c.mu.Unlock()
		return ""
	}

	tempID := TempIDPrefix + uuid.NewString()
	c.active.Messages = append(c.active.Messages, chat.Message{
		ID:       tempID,
		SenderID: c.self.ID,
		Content:  content,
		SentAt:   time.Now().UTC(),
	})
	c.pending[tempID] = struct{}{}
	c.mu.Unlock()

	err := c.emitter.Emit(gateway.EventSendMessage, gateway.SendMessagePayload{
		RecipientID:   peer.ID.String(),
		RecipientKind: string(peer.Kind),
		Content:       content,
		RecipientName: peer.Name,
		SenderName:    c.self.Name,
		ClientTempID:  tempID,
	})
	if err != nil {
		// Offline or transport failure: the optimistic message stays
		// pending until a reconnect produces message_sent or error.
		c.log.Warn("emit failed, message stays pending", "temp_id", tempID, "error", err)
	}
	return tempID
}

// HandleReceiveMessage refreshes the thread list and, when the event
// targets the open conversation, appends the incoming message.
func (c *Controller) HandleReceiveMessage(payload gateway.ReceiveMessagePayload) {
	if err := c.RefreshThreads(); err != nil {
		c.log.Warn("thread refresh failed", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.ID != payload.ThreadID {
		return
	}
	c.active.Messages = append(c.active.Messages, normalizeMessage(payload.Message))
	c.active.LastActivityAt = payload.Message.SentAt
}

// HandleMessageSent reconciles a server confirmation with the optimistic
// copy: adopt the server thread id if the conversation was a placeholder,
// replace the matching pending message in place, or fall back to a
// duplicate-safe append when the temp id is gone. A confirmation for a
// temp id already removed must not duplicate state.
func (c *Controller) HandleMessageSent(payload gateway.MessageSentPayload) {
	c.mu.Lock()
	// The pending entry goes regardless of which thread is open: a
	// confirmation for a conversation the user navigated away from must
	// not leak correlation state.
	if payload.ClientTempID != "" {
		delete(c.pending, payload.ClientTempID)
	}
	if c.active != nil {
		wasTemp := strings.HasPrefix(c.active.ID, TempIDPrefix)
		if wasTemp && payload.ThreadID != "" {
			c.active.ID = payload.ThreadID
		}

		if c.active.ID == payload.ThreadID {
			confirmed := normalizeMessage(payload.Message)
			if idx := indexOfMessage(c.active.Messages, payload.ClientTempID); payload.ClientTempID != "" && idx >= 0 {
				c.active.Messages[idx] = confirmed
			} else if !containsEquivalent(c.active.Messages, confirmed) {
				c.active.Messages = append(c.active.Messages, confirmed)
			}
			c.active.LastActivityAt = confirmed.SentAt
		}
	}
	c.mu.Unlock()

	if err := c.RefreshThreads(); err != nil {
		c.log.Warn("thread refresh failed", "error", err)
	}
}

// HandleError rolls back the optimistic message named by the error's
// clientTempId, if any, and surfaces the message to the user.
func (c *Controller) HandleError(payload gateway.ErrorPayload) {
	c.mu.Lock()
	if payload.ClientTempID != "" {
		delete(c.pending, payload.ClientTempID)
		if c.active != nil {
			if idx := indexOfMessage(c.active.Messages, payload.ClientTempID); idx >= 0 {
				c.active.Messages = append(c.active.Messages[:idx], c.active.Messages[idx+1:]...)
			}
		}
	}
	onError := c.onError
	c.mu.Unlock()

	if onError != nil {
		onError(payload.Message)
	}
}

func indexOfMessage(messages []chat.Message, id string) int {
	for i, m := range messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// containsEquivalent guards the append fallback against showing the same
// message twice: same content within the reconciliation tolerance counts
// as already present.
func containsEquivalent(messages []chat.Message, candidate chat.Message) bool {
	for _, m := range messages {
		if m.Content != candidate.Content {
			continue
		}
		delta := m.SentAt.Sub(candidate.SentAt)
		if delta < 0 {
			delta = -delta
		}
		if delta < reconcileTolerance {
			return true
		}
	}
	return false
}

func normalizeThread(t chat.Thread) chat.Thread {
	out := copyThread(t)
	for i, p := range out.Participants {
		if id, err := chat.ParseUserID(p.ID.String()); err == nil {
			out.Participants[i].ID = id
		}
	}
	for i := range out.Messages {
		out.Messages[i] = normalizeMessage(out.Messages[i])
	}
	return out
}

func normalizeMessage(m chat.Message) chat.Message {
	if id, err := chat.ParseUserID(m.SenderID.String()); err == nil {
		m.SenderID = id
	}
	return m
}

func copyThread(t chat.Thread) chat.Thread {
	out := t
	out.Participants = append([]chat.Participant(nil), t.Participants...)
	out.Messages = append([]chat.Message(nil), t.Messages...)
	return out
}
