package chat

import (
	"sort"
	"strings"
	"unicode"

	"collabx/errors"
)

// UserID is the canonical string form of a participant identifier.
// Identifiers cross the transport and storage boundaries in more than one
// representation; every ingress point must go through ParseUserID so that
// equality checks stay meaningful.
type UserID string

func (id UserID) String() string {
	return string(id)
}

// ParseUserID normalizes a raw identifier into its canonical form.
// Returns ErrInvalidIdentity for empty identifiers or identifiers containing
// whitespace or control characters.
func ParseUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.ErrInvalidIdentity
	}
	for _, r := range trimmed {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", errors.ErrInvalidIdentity
		}
	}
	return UserID(trimmed), nil
}

// PairKey builds the canonical key of an unordered participant pair.
// Both orders of the same pair produce the same key, which is what
// guarantees at most one thread per pair at the storage layer.
func PairKey(a, b UserID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}
