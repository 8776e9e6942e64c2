package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"collabx/domain/chat"
	"collabx/errors"
)

func Test_Token_Generate_Then_Validate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Generate("64f1c2a9", chat.KindStartup, "founder@acme.io")
	req.NoError(err)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("64f1c2a9", claims.UserID)
	req.Equal(string(chat.KindStartup), claims.Kind)
	req.Equal("founder@acme.io", claims.Email)
	req.Equal("collabx", claims.Issuer)
}

func Test_Token_Validate_Rejects_Expired(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate("64f1c2a9", chat.KindStartup, "founder@acme.io")
	req.NoError(err)

	_, err = manager.Validate(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func Test_Token_Validate_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	signer := NewTokenManager("secret-one", time.Hour)
	verifier := NewTokenManager("secret-two", time.Hour)

	token, err := signer.Generate("64f1c2a9", chat.KindCorporate, "")
	req.NoError(err)

	_, err = verifier.Validate(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func Test_Token_Validate_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	_, err := manager.Validate("not.a.token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}
