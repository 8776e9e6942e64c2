// Package chat contains the core concepts of the messaging system.
// Threads, participants and messages are plain values; no transport,
// storage or UI logic lives here.
package chat

import "time"

// Kind distinguishes the two tenant sides of the marketplace.
type Kind string

const (
	KindStartup   Kind = "startup"
	KindCorporate Kind = "corporate"
	KindUnknown   Kind = "unknown"
)

// Participant is a snapshot of a user taken at thread-creation time.
// It is deliberately not refreshed if the underlying profile changes.
type Participant struct {
	ID   UserID `json:"id"`
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// Message is an immutable chat entry owned by exactly one thread.
// The Read flag is reserved; nothing sets it to true yet.
type Message struct {
	ID       string    `json:"id"`
	SenderID UserID    `json:"senderId"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
	Read     bool      `json:"read"`
}

// Thread is a conversation between exactly two distinct participants.
// Messages are append-only and chronological. A thread is uniquely
// identified by the unordered pair of its participant ids.
type Thread struct {
	ID             string        `json:"id"`
	Participants   []Participant `json:"participants"`
	Messages       []Message     `json:"messages"`
	LastActivityAt time.Time     `json:"lastActivityAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (t Thread) HasParticipant(userID UserID) bool {
	for _, p := range t.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Peer returns the other participant from userID's point of view.
func (t Thread) Peer(userID UserID) (Participant, bool) {
	for _, p := range t.Participants {
		if p.ID != userID {
			return p, true
		}
	}
	return Participant{}, false
}
