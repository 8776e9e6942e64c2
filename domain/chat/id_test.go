package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"collabx/errors"
)

func Test_ParseUserID_Trims_Surrounding_Whitespace(t *testing.T) {
	req := require.New(t)

	id, err := ParseUserID("  64f1c2a9  ")
	req.NoError(err)
	req.Equal(UserID("64f1c2a9"), id)
}

func Test_ParseUserID_Rejects_Empty_And_Blank(t *testing.T) {
	req := require.New(t)

	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := ParseUserID(raw)
		req.ErrorIs(err, errors.ErrInvalidIdentity)
	}
}

func Test_ParseUserID_Rejects_Inner_Whitespace_And_Control(t *testing.T) {
	req := require.New(t)

	for _, raw := range []string{"abc def", "abc\tdef", "abc\x00def"} {
		_, err := ParseUserID(raw)
		req.ErrorIs(err, errors.ErrInvalidIdentity)
	}
}

func Test_PairKey_Is_Order_Independent(t *testing.T) {
	req := require.New(t)
	alice := UserID("alice")
	bob := UserID("bob")

	req.Equal(PairKey(alice, bob), PairKey(bob, alice))
	req.Equal("alice|bob", PairKey(bob, alice))
}
