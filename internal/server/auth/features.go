// Package auth holds the authorization engine: the closed set of features,
// the anonymous-or-authenticated Subject, ownership rules and response
// filtering.
package auth

import (
	"github.com/dmitrijs2005/enraizado/internal/common"
)

// Feature is a permission flag carried by a subject.
type Feature string

const (
	CreateUser       Feature = "create:user"
	ReadUser         Feature = "read:user"
	ReadUserSelf     Feature = "read:user:self"
	UpdateUser       Feature = "update:user"
	UpdateUserOthers Feature = "update:user:others"

	ReadMigration   Feature = "read:migration"
	CreateMigration Feature = "create:migration"

	ReadActivationToken        Feature = "read:activation_token"
	ReadRecoveryToken          Feature = "read:recovery_token"
	ReadEmailConfirmationToken Feature = "read:email_confirmation_token"

	CreateSession Feature = "create:session"
	ReadSession   Feature = "read:session"

	ReadContent         Feature = "read:content"
	CreateContent       Feature = "create:content"
	UpdateContent       Feature = "update:content"
	UpdateContentOthers Feature = "update:content:others"
	DeleteContent       Feature = "delete:content"

	CreateGuest       Feature = "create:guest"
	UpdateGuest       Feature = "update:guest"
	UpdateGuestOthers Feature = "update:guest:others"
	DeleteGuest       Feature = "delete:guest"

	Nuked Feature = "nuked"

	CreatePoints Feature = "create:points"
	ReadPoints   Feature = "read:points"
	ReadRanking  Feature = "read:ranking"

	ReadAdList Feature = "read:ad:list"
)

// allFeatures is the registry, in display order. It is never mutated.
var allFeatures = []Feature{
	CreateUser, ReadUser, ReadUserSelf, UpdateUser, UpdateUserOthers,
	ReadMigration, CreateMigration,
	ReadActivationToken, ReadRecoveryToken, ReadEmailConfirmationToken,
	CreateSession, ReadSession,
	ReadContent, CreateContent, UpdateContent, UpdateContentOthers, DeleteContent,
	CreateGuest, UpdateGuest, UpdateGuestOthers, DeleteGuest,
	Nuked,
	CreatePoints, ReadPoints, ReadRanking,
	ReadAdList,
}

var known = func() map[Feature]struct{} {
	m := make(map[Feature]struct{}, len(allFeatures))
	for _, f := range allFeatures {
		m[f] = struct{}{}
	}
	return m
}()

// Feature sets assigned by the account lifecycle.
var (
	AnonymousFeatures = []Feature{ReadActivationToken, CreateUser, CreateSession}
	DefaultFeatures   = []Feature{ReadActivationToken}
	ActivatedFeatures = []Feature{CreateSession, ReadSession, UpdateUser, CreatePoints, ReadPoints, ReadRanking}
)

// All returns a copy of every known feature.
func All() []Feature {
	return append([]Feature(nil), allFeatures...)
}

func (f Feature) Known() bool {
	_, ok := known[f]
	return ok
}

// ParseFeature rejects strings outside the closed set.
func ParseFeature(s string) (Feature, error) {
	f := Feature(s)
	if !f.Known() {
		return "", unknownFeatureError(s)
	}
	return f, nil
}

// ParseFeatures parses every entry, failing on the first unknown one.
func ParseFeatures(list []string) ([]Feature, error) {
	out := make([]Feature, 0, len(list))
	for _, s := range list {
		f, err := ParseFeature(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Strings converts features for storage.
func Strings(features []Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = string(f)
	}
	return out
}

func unknownFeatureError(s string) *common.Error {
	return common.NewValidationError(
		"The feature used is not in the list of available features.",
		`Contact support quoting the "feature" field.`,
	).WithContext(map[string]any{"feature": s})
}
