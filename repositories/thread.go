package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"collabx/domain/chat"
	"collabx/errors"
)

func newThreadID() string {
	return uuid.NewString()
}

type IThreadRepository interface {
	Append(sender, recipient chat.Participant, message chat.Message) (chat.Thread, error)
	ListForUser(userID chat.UserID) ([]chat.Thread, error)
	GetByID(threadID string) (chat.Thread, error)
}

// ThreadRepository persists threads in BadgerDB as JSON documents.
// Key layout:
//
//	thread:{pairKey}          -> thread record (pairKey = sorted "idA|idB")
//	threadix:{threadID}       -> pairKey
//	userix:{userID}:{pairKey} -> empty (membership index for ListForUser)
//
// Keying the record itself by the canonical unordered pair is what makes
// "at most one thread per pair" hold: two concurrent first messages for
// the same pair land on the same key inside serialized transactions, so
// one of them finds the thread the other created.
type ThreadRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewThreadRepository(db *badger.DB, log *slog.Logger) ThreadRepository {
	return ThreadRepository{db: db, log: log}
}

func threadKey(pairKey string) []byte {
	return []byte("thread:" + pairKey)
}

func threadIDKey(threadID string) []byte {
	return []byte("threadix:" + threadID)
}

func userIndexKey(userID chat.UserID, pairKey string) []byte {
	return []byte(fmt.Sprintf("userix:%s:%s", userID, pairKey))
}

// Append finds or creates the thread for the (sender, recipient) pair and
// appends the message in a single transaction. Thread creation and first
// append are never two independently durable steps, and the insert-if-absent
// is atomic with respect to the pair key.
func (r ThreadRepository) Append(sender, recipient chat.Participant, message chat.Message) (chat.Thread, error) {
	pairKey := chat.PairKey(sender.ID, recipient.ID)
	var thread chat.Thread

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(threadKey(pairKey))
		switch err {
		case nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &thread)
			}); err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			thread = chat.Thread{
				ID:           newThreadID(),
				Participants: []chat.Participant{sender, recipient},
			}
			if err := txn.Set(threadIDKey(thread.ID), []byte(pairKey)); err != nil {
				return err
			}
			if err := txn.Set(userIndexKey(sender.ID, pairKey), nil); err != nil {
				return err
			}
			if err := txn.Set(userIndexKey(recipient.ID, pairKey), nil); err != nil {
				return err
			}
		default:
			return err
		}

		thread.Messages = append(thread.Messages, message)
		thread.LastActivityAt = message.SentAt

		data, err := json.Marshal(thread)
		if err != nil {
			return err
		}
		return txn.Set(threadKey(pairKey), data)
	})
	if err != nil {
		return chat.Thread{}, fmt.Errorf("append message: %w", err)
	}
	return thread, nil
}

// ListForUser returns every thread the user participates in, most recent
// activity first. The membership index is the primary path; when it yields
// nothing, a full scan with string comparison of participant ids covers
// records written before the index existed.
func (r ThreadRepository) ListForUser(userID chat.UserID) ([]chat.Thread, error) {
	var pairKeys []string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("userix:%s:", userID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			pairKeys = append(pairKeys, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var threads []chat.Thread
	if len(pairKeys) > 0 {
		err = r.db.View(func(txn *badger.Txn) error {
			for _, pk := range pairKeys {
				item, err := txn.Get(threadKey(pk))
				if err != nil {
					return err
				}
				var thread chat.Thread
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &thread)
				}); err != nil {
					return err
				}
				threads = append(threads, thread)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		threads, err = r.scanForUser(userID)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastActivityAt.After(threads[j].LastActivityAt)
	})
	return threads, nil
}

// scanForUser is the defensive fallback: iterate every thread record and
// compare participant ids in their string form. Not a performance path.
func (r ThreadRepository) scanForUser(userID chat.UserID) ([]chat.Thread, error) {
	var threads []chat.Thread
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("thread:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var thread chat.Thread
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &thread)
			}); err != nil {
				return err
			}
			for _, p := range thread.Participants {
				if p.ID.String() == userID.String() {
					threads = append(threads, thread)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(threads) > 0 {
		r.log.Warn("thread membership index missed, served by full scan", "user_id", userID)
	}
	return threads, nil
}

func (r ThreadRepository) GetByID(threadID string) (chat.Thread, error) {
	var thread chat.Thread
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(threadIDKey(threadID))
		if err != nil {
			return err
		}
		var pairKey string
		if err := item.Value(func(val []byte) error {
			pairKey = string(val)
			return nil
		}); err != nil {
			return err
		}

		record, err := txn.Get(threadKey(pairKey))
		if err != nil {
			return err
		}
		return record.Value(func(val []byte) error {
			return json.Unmarshal(val, &thread)
		})
	})
	if err == badger.ErrKeyNotFound {
		return chat.Thread{}, errors.ErrThreadNotFound
	}
	if err != nil {
		return chat.Thread{}, err
	}
	return thread, nil
}
