package models

import (
	"encoding/json"
	"time"
)

// User is a site account. Password holds the bcrypt hash and is stripped
// from every outbound payload.
type User struct {
	ID                   string          `json:"id"`
	Username             string          `json:"username"`
	Email                string          `json:"email"`
	Password             string          `json:"password"`
	Features             StringArray     `json:"features"`
	Points               int             `json:"points"`
	Forests              json.RawMessage `json:"forests"`
	ReadingProgress      *string         `json:"reading_progress"`
	LastInsight          *string         `json:"last_insight"`
	LastInsightReference *string         `json:"last_insight_reference"`
	LastSyncAt           *time.Time      `json:"last_sync_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// HasFeature reports whether f is among the user's features.
func (u *User) HasFeature(f string) bool {
	for _, have := range u.Features {
		if have == f {
			return true
		}
	}
	return false
}

// UserInput is the registration payload.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPatch carries the fields a user may change; nil means "not sent".
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// GamificationState is the full snapshot pushed by the mobile app.
type GamificationState struct {
	Points               int             `json:"points"`
	Forests              json.RawMessage `json:"forests"`
	ReadingProgress      *string         `json:"readingProgress"`
	LastInsight          *string         `json:"lastInsight"`
	LastInsightReference *string         `json:"lastInsightReference"`
	LastSyncAt           *time.Time      `json:"lastSyncAt"`
}

// DeleteResult acknowledges an account deletion.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
