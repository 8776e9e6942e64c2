package services

import (
	"fmt"

	"collabx/auth"
	"collabx/domain/chat"
	"collabx/errors"
	"collabx/repositories"
)

type IAuthService interface {
	Signup(cmd SignupCommand) (Token, repositories.Account, error)
	Login(kind chat.Kind, email, password string) (Token, repositories.Account, error)
}

type SignupCommand struct {
	Kind        chat.Kind
	CompanyName string
	Email       string
	Password    string
	ContactName string
	Industry    string
	Description string
	Website     string
}

type Token string

type AuthService struct {
	accounts repositories.IAccountRepository
	tokens   *auth.TokenManager
}

func NewAuthService(accounts repositories.IAccountRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens}
}

// Signup registers a startup or corporate account and returns an initial
// session token. Validation runs before any cryptographic work.
func (s *AuthService) Signup(cmd SignupCommand) (Token, repositories.Account, error) {
	req := auth.SignupRequest{
		CompanyName: cmd.CompanyName,
		Email:       cmd.Email,
		Password:    cmd.Password,
		ContactName: cmd.ContactName,
	}
	if err := auth.ValidateSignup(req); err != nil {
		return "", repositories.Account{}, fmt.Errorf("%w: %v", errors.ErrInvalidSignup, err)
	}
	if cmd.Kind != chat.KindStartup && cmd.Kind != chat.KindCorporate {
		return "", repositories.Account{}, fmt.Errorf("%w: unknown account kind %q", errors.ErrInvalidSignup, cmd.Kind)
	}

	hashed, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return "", repositories.Account{}, fmt.Errorf("hashing failed: %w", err)
	}

	account := repositories.Account{
		Kind:         cmd.Kind,
		Email:        cmd.Email,
		PasswordHash: hashed,
		CompanyName:  cmd.CompanyName,
		ContactName:  cmd.ContactName,
		Industry:     cmd.Industry,
		Description:  cmd.Description,
		Website:      cmd.Website,
	}
	id, err := s.accounts.CreateAccount(account)
	if err != nil {
		return "", repositories.Account{}, err
	}
	account.ID = id
	account.PasswordHash = ""

	token, err := s.tokens.Generate(chat.UserID(id), cmd.Kind, cmd.Email)
	if err != nil {
		return "", repositories.Account{}, errors.ErrTokenGeneration
	}
	return Token(token), account, nil
}

// Login verifies credentials and issues a session token. Lookup failures
// and password mismatches share one generic error to prevent enumeration.
func (s *AuthService) Login(kind chat.Kind, email, password string) (Token, repositories.Account, error) {
	account, err := s.accounts.GetByEmail(kind, email)
	if err != nil {
		return "", repositories.Account{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return "", repositories.Account{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(chat.UserID(account.ID), account.Kind, account.Email)
	if err != nil {
		return "", repositories.Account{}, errors.ErrTokenGeneration
	}
	account.PasswordHash = ""
	return Token(token), account, nil
}
