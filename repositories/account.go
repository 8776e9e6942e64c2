package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"collabx/domain/chat"
	"collabx/errors"
)

type IAccountRepository interface {
	CreateAccount(account Account) (string, error)
	GetByEmail(kind chat.Kind, email string) (Account, error)
	GetByID(id string) (Account, error)
}

// Account is the stored representation of a startup or corporate user.
// ContactName holds the founder name for startups and the contact person
// for corporates.
type Account struct {
	ID           string    `json:"id"`
	Kind         chat.Kind `json:"kind"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CompanyName  string    `json:"companyName"`
	ContactName  string    `json:"contactName"`
	Industry     string    `json:"industry,omitempty"`
	Description  string    `json:"description,omitempty"`
	Website      string    `json:"website,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AccountRepository persists accounts in BadgerDB as JSON documents.
// Email uniqueness is scoped per kind, matching the two separate tenant
// collections of the marketplace.
type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) AccountRepository {
	return AccountRepository{db: db}
}

func accountKey(kind chat.Kind, email string) []byte {
	return []byte(fmt.Sprintf("account:%s:%s", kind, email))
}

func accountIDKey(id string) []byte {
	return []byte("accountix:" + id)
}

// CreateAccount persists the account and returns the generated id.
// Fails with ErrEmailTaken if the email is already registered for that kind.
func (r AccountRepository) CreateAccount(account Account) (string, error) {
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(account)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	key := accountKey(account.Kind, account.Email)
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return errors.ErrEmailTaken
		}
		if err := txn.Set(accountIDKey(account.ID), key); err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

func (r AccountRepository) GetByEmail(kind chat.Kind, email string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(kind, email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

func (r AccountRepository) GetByID(id string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountIDKey(id))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		record, err := txn.Get(key)
		if err != nil {
			return err
		}
		return record.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}
