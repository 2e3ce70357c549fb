package auth

import "github.com/dmitrijs2005/enraizado/internal/server/models"

// Subject is whoever issued the request: an anonymous visitor or a
// logged-in user.
type Subject struct {
	anonymous bool
	user      *models.User
	features  []string
}

// Anonymous carries AnonymousFeatures and no identity.
func Anonymous() Subject {
	return Subject{anonymous: true, features: Strings(AnonymousFeatures)}
}

// Authenticated wraps a loaded user.
func Authenticated(u *models.User) Subject {
	features := []string(u.Features)
	if features == nil {
		features = []string{}
	}
	return Subject{user: u, features: features}
}

func (s Subject) IsAnonymous() bool { return s.anonymous }

// User is nil for anonymous subjects.
func (s Subject) User() *models.User { return s.user }

func (s Subject) ID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s Subject) Features() []string { return s.features }

func (s Subject) Has(f Feature) bool {
	for _, have := range s.features {
		if have == string(f) {
			return true
		}
	}
	return false
}
