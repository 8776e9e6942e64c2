package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_HashPassword_Then_Compare_Matches(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("correct horse battery staple", hash)
	req.NoError(err)
	req.True(match)
}

func Test_ComparePassword_Rejects_Wrong_Password(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("secret123")
	req.NoError(err)

	match, err := ComparePassword("secret124", hash)
	req.NoError(err)
	req.False(match)
}

func Test_HashPassword_Salts_Each_Hash(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("secret123")
	req.NoError(err)
	second, err := HashPassword("secret123")
	req.NoError(err)
	req.NotEqual(first, second)
}

func Test_ComparePassword_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("secret123", "not-a-hash")
	req.ErrorIs(err, errMalformedHash)
}
