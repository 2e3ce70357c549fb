package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/cryptox"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/tidwall/gjson"
)

// AccountDeletedMessage acknowledges DeleteByUsername.
const AccountDeletedMessage = "Account deleted successfully"

// gamificationFields must all be present in a sync payload, in this order.
var gamificationFields = []string{
	"points", "forests", "readingProgress", "lastInsight", "lastInsightReference", "lastSyncAt",
}

// UserService owns the user store: registration, lookups, profile and
// feature updates, gamification sync, deletion and ranking.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher}
}

func validateUsername(username string) error {
	if err := validation.Validate(username, validation.Required, validation.Match(usernamePattern)); err != nil {
		return common.NewValidationError(
			"Username must be 3 to 20 characters long and contain only letters, numbers, underscore (_) and hyphen (-).",
			"Adjust the username format.",
		)
	}
	return nil
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return common.NewValidationError(
			"The email provided is not valid.",
			"Check that the email is in the correct format (example@domain.com).",
		)
	}
	return nil
}

func (s *UserService) validateUniqueEmail(ctx context.Context, email string) error {
	found, err := s.repomanager.Users(s.db).EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if found {
		return common.NewValidationError(
			"The email provided is already in use.",
			"Use another email to perform this operation.",
		)
	}
	return nil
}

func (s *UserService) validateUniqueUsername(ctx context.Context, username string) error {
	found, err := s.repomanager.Users(s.db).UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if found {
		return common.NewValidationError(
			"The username provided is already in use.",
			"Use another username to perform this operation.",
		)
	}
	return nil
}

func (s *UserService) hashPassword(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, cryptox.ErrEmptyPassword) {
			return "", common.NewValidationError("A password is required.", "Send a password and try again.")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Create registers a user holding only DefaultFeatures.
func (s *UserService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := s.validateUniqueEmail(ctx, in.Email); err != nil {
		return nil, err
	}
	if err := s.validateUniqueUsername(ctx, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Features: auth.Strings(auth.DefaultFeatures),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err,
			"The ID provided was not found in the system.",
			"Check that the ID is typed correctly.")
	}
	return u, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err,
			"The username provided was not found in the system.",
			"Check that the username is typed correctly.")
	}
	return u, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return nil, mapNotFound(err,
			"The email provided was not found in the system.",
			"Check that the email is typed correctly.")
	}
	return u, nil
}

// Update applies patch to the user currently named username. Email and
// username are re-validated only when they actually change.
func (s *UserService) Update(ctx context.Context, username string, patch models.UserPatch) (*models.User, error) {
	current, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	next := *current

	if patch.Email != nil && !strings.EqualFold(*patch.Email, current.Email) {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
		if err := s.validateUniqueEmail(ctx, *patch.Email); err != nil {
			return nil, err
		}
		next.Email = *patch.Email
	}

	if patch.Username != nil {
		if !strings.EqualFold(*patch.Username, current.Username) {
			if err := validateUsername(*patch.Username); err != nil {
				return nil, err
			}
			if err := s.validateUniqueUsername(ctx, *patch.Username); err != nil {
				return nil, err
			}
		}
		next.Username = *patch.Username
	}

	if patch.Password != nil {
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		next.Password = hash
	}

	u, err := s.repomanager.Users(s.db).Update(ctx, &next)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// SetFeatures overwrites the user's features.
func (s *UserService) SetFeatures(ctx context.Context, userID string, features []auth.Feature) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).SetFeatures(ctx, userID, auth.Strings(features))
	if err != nil {
		return nil, mapNotFound(err,
			"The ID provided was not found in the system.",
			"Check that the ID is typed correctly.")
	}
	return u, nil
}

// UpdateGamificationState stores a full sync snapshot from the app. Every
// field of gamificationFields must be present, null allowed.
func (s *UserService) UpdateGamificationState(ctx context.Context, userID string, payload map[string]json.RawMessage) (*models.User, error) {
	if payload == nil {
		return nil, common.NewValidationError(
			"The input data must be a valid object.",
			"Send the points data to be updated.",
		)
	}

	var missing []string
	for _, f := range gamificationFields {
		if _, ok := payload[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError(
			"The following fields are required: "+strings.Join(missing, ", "),
			"Send all required fields in the request.",
		)
	}

	state, err := parseGamificationState(payload)
	if err != nil {
		return nil, err
	}

	if _, err := s.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).UpdateGamification(ctx, userID, state)
	if err != nil {
		return nil, fmt.Errorf("update gamification: %w", err)
	}
	return u, nil
}

func parseGamificationState(payload map[string]json.RawMessage) (*models.GamificationState, error) {
	invalid := func(msg string) error {
		return common.NewValidationError(msg, "Send all required fields in the request.")
	}

	if string(payload["points"]) == "null" {
		return nil, invalid("points must be a non-negative integer.")
	}
	if forests := gjson.ParseBytes(payload["forests"]); !forests.IsArray() && forests.Type != gjson.Null {
		return nil, invalid("forests must be an array.")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	state := &models.GamificationState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, invalid("The gamification data has invalid field types.")
	}

	if err := validation.ValidateStruct(state,
		validation.Field(&state.Points, validation.Min(0)),
		validation.Field(&state.LastInsightReference, validation.Length(0, 100)),
	); err != nil {
		return nil, invalid(err.Error())
	}
	return state, nil
}

// DeleteByUsername removes the user with its sessions and activation tokens
// inside one transaction.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) (*models.DeleteResult, error) {
	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).DeleteByUserID(ctx, u.ID); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := s.repomanager.Activations(tx).DeleteByUserID(ctx, u.ID); err != nil {
			return fmt.Errorf("delete activation tokens: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, u.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.DeleteResult{Success: true, Message: AccountDeletedMessage}, nil
}
