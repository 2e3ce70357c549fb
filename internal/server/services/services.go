// Package services contains server-side business logic. Services take a
// RepositoryManager and rebind repositories to a *sql.Tx whenever several
// writes must commit together.
package services

import (
	"errors"
	"regexp"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) bool
}

// newToken is a seam for deterministic tokens in tests.
var newToken = func() (string, error) {
	return common.MakeRandHexString(common.TokenByteLength)
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// mapNotFound turns the repository sentinel into a client-facing error and
// passes anything else through.
func mapNotFound(err error, message, action string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewNotFoundError(message, action)
	}
	return err
}

func validateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.NewValidationError(
			"The UUID provided is not valid.",
			"Check that the ID provided is in the correct format.",
		)
	}
	return nil
}
