package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabx/domain/chat"
	"collabx/errors"
	"collabx/moderation"
	"collabx/repositories"
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Thread, chat.Message, error)
	ListThreads(userID chat.UserID) ([]chat.Thread, error)
	GetThread(threadID string) (chat.Thread, error)
}

// ChatService validates sending intents and turns them into persisted
// messages. All validation happens before any storage write: a rejected
// command leaves no trace.
type ChatService struct {
	threads   repositories.IThreadRepository
	moderator *moderation.Moderator
	log       *slog.Logger
}

func NewChatService(threads repositories.IThreadRepository, moderator *moderation.Moderator, log *slog.Logger) *ChatService {
	return &ChatService{threads: threads, moderator: moderator, log: log}
}

// SendMessage validates the command, persists the message in the pair's
// thread (creating it on first contact) and returns the stored thread and
// message. The caller is responsible for delivery and confirmation events.
func (s *ChatService) SendMessage(_ context.Context, cmd chat.SendMessageCommand) (chat.Thread, chat.Message, error) {
	if cmd.Recipient.ID == "" {
		return chat.Thread{}, chat.Message{}, errors.ErrMissingRecipient
	}

	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return chat.Thread{}, chat.Message{}, errors.ErrEmptyContent
	}

	senderID, err := chat.ParseUserID(cmd.Sender.ID.String())
	if err != nil {
		return chat.Thread{}, chat.Message{}, err
	}
	recipientID, err := chat.ParseUserID(cmd.Recipient.ID.String())
	if err != nil {
		return chat.Thread{}, chat.Message{}, err
	}

	if senderID == recipientID {
		return chat.Thread{}, chat.Message{}, errors.ErrSelfMessage
	}

	sender := normalizeParticipant(cmd.Sender, senderID)
	recipient := normalizeParticipant(cmd.Recipient, recipientID)

	message := chat.Message{
		ID:       uuid.NewString(),
		SenderID: senderID,
		Content:  s.moderator.Censor(content),
		SentAt:   time.Now().UTC(),
		Read:     false,
	}

	thread, err := s.threads.Append(sender, recipient, message)
	if err != nil {
		s.log.Error("failed to persist message", "sender", senderID, "recipient", recipientID, "error", err)
		return chat.Thread{}, chat.Message{}, err
	}

	return thread, message, nil
}

func (s *ChatService) ListThreads(userID chat.UserID) ([]chat.Thread, error) {
	return s.threads.ListForUser(userID)
}

func (s *ChatService) GetThread(threadID string) (chat.Thread, error) {
	return s.threads.GetByID(threadID)
}

// normalizeParticipant fills the defaults the wire payload may omit.
// The stored name is a snapshot; it is not refreshed on later profile edits.
func normalizeParticipant(p chat.Participant, id chat.UserID) chat.Participant {
	out := chat.Participant{ID: id, Kind: p.Kind, Name: p.Name}
	if out.Kind == "" {
		out.Kind = chat.KindUnknown
	}
	if out.Name == "" {
		out.Name = "Unknown"
	}
	return out
}
