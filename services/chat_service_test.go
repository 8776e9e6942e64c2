package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"collabx/domain/chat"
	"collabx/errors"
	"collabx/moderation"
	"collabx/repositories"
)

func newTestChatService(t *testing.T, moderator *moderation.Moderator) *ChatService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repository := repositories.NewThreadRepository(db, slog.Default())
	return NewChatService(repository, moderator, slog.Default())
}

func sendCommand(sender, recipient string, content string) chat.SendMessageCommand {
	return chat.SendMessageCommand{
		Sender:    chat.Participant{ID: chat.UserID(sender), Kind: chat.KindStartup, Name: sender},
		Recipient: chat.Participant{ID: chat.UserID(recipient), Kind: chat.KindCorporate, Name: recipient},
		Content:   content,
	}
}

func Test_SendMessage_Persists_And_Returns_Thread(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	thread, message, err := service.SendMessage(context.Background(), sendCommand("alice", "bob", "hello bob"))
	req.NoError(err)
	req.NotEmpty(thread.ID)
	req.Equal("hello bob", message.Content)
	req.Equal(chat.UserID("alice"), message.SenderID)
	req.False(message.Read)
	req.False(message.SentAt.IsZero())

	threads, err := service.ListThreads("bob")
	req.NoError(err)
	req.Len(threads, 1)
	req.Equal(thread.ID, threads[0].ID)
}

func Test_SendMessage_Trims_Content(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	_, message, err := service.SendMessage(context.Background(), sendCommand("alice", "bob", "  hello  "))
	req.NoError(err)
	req.Equal("hello", message.Content)
}

func Test_SendMessage_Rejects_Missing_Recipient(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	cmd := sendCommand("alice", "bob", "hello")
	cmd.Recipient.ID = ""

	_, _, err := service.SendMessage(context.Background(), cmd)
	req.ErrorIs(err, errors.ErrMissingRecipient)
}

func Test_SendMessage_Rejects_Blank_Content(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	_, _, err := service.SendMessage(context.Background(), sendCommand("alice", "bob", "   "))
	req.ErrorIs(err, errors.ErrEmptyContent)

	// Nothing was persisted for the pair
	threads, err := service.ListThreads("alice")
	req.NoError(err)
	req.Empty(threads)
}

func Test_SendMessage_Rejects_Self_Message(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	_, _, err := service.SendMessage(context.Background(), sendCommand("alice", "alice", "note to self"))
	req.ErrorIs(err, errors.ErrSelfMessage)
}

func Test_SendMessage_Rejects_Invalid_Identity(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	_, _, err := service.SendMessage(context.Background(), sendCommand("alice", "bad id", "hello"))
	req.ErrorIs(err, errors.ErrInvalidIdentity)
}

func Test_SendMessage_Keeps_One_Thread_Per_Pair(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	first, _, err := service.SendMessage(context.Background(), sendCommand("alice", "bob", "hello"))
	req.NoError(err)
	second, _, err := service.SendMessage(context.Background(), sendCommand("bob", "alice", "hi back"))
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Len(second.Messages, 2)

	threads, err := service.ListThreads("alice")
	req.NoError(err)
	req.Len(threads, 1)
}

func Test_SendMessage_Censors_Content(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"scam"}, '*')
	req.NoError(err)
	service := newTestChatService(t, moderator)

	_, message, err := service.SendMessage(context.Background(), sendCommand("alice", "bob", "sounds like a scam"))
	req.NoError(err)
	req.Equal("sounds like a ****", message.Content)
}

func Test_SendMessage_Defaults_Unknown_Participant_Fields(t *testing.T) {
	req := require.New(t)
	service := newTestChatService(t, nil)

	cmd := sendCommand("alice", "bob", "hello")
	cmd.Recipient.Kind = ""
	cmd.Recipient.Name = ""

	thread, _, err := service.SendMessage(context.Background(), cmd)
	req.NoError(err)
	req.Equal(chat.KindUnknown, thread.Participants[1].Kind)
	req.Equal("Unknown", thread.Participants[1].Name)
}
