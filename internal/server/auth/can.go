package auth

import "github.com/dmitrijs2005/enraizado/internal/common"

// Resource is the owned object an action targets.
type Resource struct {
	UserID string
}

type rule func(s Subject, r *Resource) bool

func owns(s Subject, r *Resource) bool {
	return r != nil && r.UserID != "" && r.UserID == s.ID()
}

func ownerOrContentOthers(s Subject, r *Resource) bool {
	if r == nil {
		return true
	}
	return owns(s, r) || s.Has(UpdateContentOthers)
}

// rules maps features to their ownership predicate. Features not listed
// are allowed only when no resource is involved.
var rules = map[Feature]rule{
	UpdateUser: owns,
	UpdateGuest: func(s Subject, r *Resource) bool {
		return owns(s, r) || s.Has(UpdateGuestOthers)
	},
	UpdateContent: ownerOrContentOthers,
	ReadContent:   ownerOrContentOthers,
	DeleteGuest:   ownerOrContentOthers,
	DeleteContent: ownerOrContentOthers,
}

func defaultRule(_ Subject, r *Resource) bool {
	return r == nil
}

// Can reports whether s may exercise feature f, optionally on resource r.
// Unknown features and subjects without a feature list are programming
// errors and come back as a ValidationError.
func Can(s Subject, f Feature, r *Resource) (bool, error) {
	if err := validate(s, f); err != nil {
		return false, err
	}
	if !s.Has(f) {
		return false, nil
	}
	if check, ok := rules[f]; ok {
		return check(s, r), nil
	}
	return defaultRule(s, r), nil
}

func validate(s Subject, f Feature) error {
	if s.features == nil {
		return common.NewValidationError(
			`The subject has no "features" list.`,
			`Contact support quoting the "errorId" field.`,
		)
	}
	if f == "" {
		return common.NewValidationError(
			`No "feature" was given to the authorization check.`,
			`Contact support quoting the "errorId" field.`,
		)
	}
	if !f.Known() {
		return unknownFeatureError(string(f))
	}
	return nil
}
