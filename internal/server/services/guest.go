package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/guests"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/tidwall/sjson"
)

const birthDateLayout = "2006-01-02"

// guestReadOnly are keys a patch may send but never change.
var guestReadOnly = map[string]struct{}{
	"id": {}, "user_id": {}, "created_at": {}, "updated_at": {},
}

// guestFields holds the top-level JSON keys of a guest. Patch keys outside
// it are dropped so they never reach sjson as paths.
var guestFields = func() map[string]struct{} {
	doc, _ := json.Marshal(models.Guest{})
	var keys map[string]json.RawMessage
	_ = json.Unmarshal(doc, &keys)

	fields := make(map[string]struct{}, len(keys))
	for k := range keys {
		fields[k] = struct{}{}
	}
	return fields
}()

// GuestService manages hotel guests owned by hotel accounts.
type GuestService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewGuestService(db *sql.DB, m repomanager.RepositoryManager) *GuestService {
	return &GuestService{db: db, repomanager: m}
}

func validateGuest(g *models.Guest) error {
	required := []struct {
		name  string
		value string
	}{
		{"name", g.Name},
		{"email", g.Email},
		{"phone", g.Phone},
		{"gender", g.Gender},
		{"rg_number", g.RGNumber},
		{"cpf_number", g.CPFNumber},
		{"birth_date", g.BirthDate},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return common.NewValidationError(
			"Missing required fields: "+strings.Join(missing, ", ")+".",
			"Send all required fields and try again.",
		)
	}

	if err := validation.Validate(g.Email, is.Email); err != nil {
		return common.NewValidationError(
			"The email provided is not valid.",
			"Check that the email is in the correct format (example@domain.com).",
		)
	}
	if err := validation.Validate(g.BirthDate, validation.Date(birthDateLayout)); err != nil {
		return common.NewValidationError(
			"The birth date must use the YYYY-MM-DD format.",
			"Adjust the birth date and try again.",
		)
	}
	return nil
}

// checkConflicts reports the first unique key another guest already holds.
func (s *GuestService) checkConflicts(ctx context.Context, g *models.Guest, excludeID string) error {
	keys := guests.UniqueKeys{Email: g.Email, RGNumber: g.RGNumber, CPFNumber: g.CPFNumber}
	found, err := s.repomanager.Guests(s.db).FindConflicts(ctx, keys, excludeID)
	if err != nil {
		return fmt.Errorf("check guest conflicts: %w", err)
	}

	for _, k := range found {
		if strings.EqualFold(k.Email, keys.Email) {
			return common.NewConflictError("A guest with this email is already registered.", "Use a different email.")
		}
	}
	for _, k := range found {
		if k.RGNumber == keys.RGNumber {
			return common.NewConflictError("A guest with this RG is already registered.", "Use a different RG.")
		}
	}
	for _, k := range found {
		if k.CPFNumber == keys.CPFNumber {
			return common.NewConflictError("A guest with this CPF is already registered.", "Use a different CPF.")
		}
	}
	return nil
}

// Create stores in as a guest owned by ownerID.
func (s *GuestService) Create(ctx context.Context, ownerID string, in models.Guest) (*models.Guest, error) {
	in.ID = ""
	in.UserID = ownerID
	in.CreatedAt, in.UpdatedAt = time.Time{}, time.Time{}

	if err := validateGuest(&in); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, &in, ""); err != nil {
		return nil, err
	}
	in.ApplyDefaults()

	g, err := s.repomanager.Guests(s.db).Create(ctx, &in)
	if err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}
	return g, nil
}

func (s *GuestService) FindByID(ctx context.Context, id string) (*models.Guest, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	g, err := s.repomanager.Guests(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err,
			"The guest ID provided was not found in the system.",
			"Check that the ID is typed correctly.")
	}
	return g, nil
}

// List returns ownerID's guests, or every guest when ownerID is empty.
func (s *GuestService) List(ctx context.Context, ownerID string) ([]models.Guest, error) {
	list, err := s.repomanager.Guests(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	if list == nil {
		list = []models.Guest{}
	}
	return list, nil
}

// Update merges patch over current and persists the result. Unknown and
// read-only keys are ignored.
func (s *GuestService) Update(ctx context.Context, current *models.Guest, patch map[string]json.RawMessage) (*models.Guest, error) {
	if len(patch) == 0 {
		return nil, common.NewValidationError("No field sent for update.", "Send some field and try again.")
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode guest: %w", err)
	}
	for key, value := range patch {
		if _, known := guestFields[key]; !known {
			continue
		}
		if _, ro := guestReadOnly[key]; ro {
			continue
		}
		doc, err = sjson.SetRawBytes(doc, key, value)
		if err != nil {
			return nil, common.NewValidationError(
				fmt.Sprintf("The field '%s' is not valid.", key),
				"Adjust the data sent and try again.",
			)
		}
	}

	next := models.Guest{}
	if err := json.Unmarshal(doc, &next); err != nil {
		return nil, common.NewValidationError(
			"The guest data has invalid field types.",
			"Adjust the data sent and try again.",
		)
	}
	next.ID, next.UserID = current.ID, current.UserID
	next.CreatedAt, next.UpdatedAt = current.CreatedAt, current.UpdatedAt

	if err := validateGuest(&next); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, &next, current.ID); err != nil {
		return nil, err
	}
	next.ApplyDefaults()

	g, err := s.repomanager.Guests(s.db).Update(ctx, &next)
	if err != nil {
		return nil, mapNotFound(err,
			"The guest ID provided was not found in the system.",
			"Check that the ID is typed correctly.")
	}
	return g, nil
}

func (s *GuestService) Delete(ctx context.Context, id string) error {
	if err := validateUUID(id); err != nil {
		return err
	}
	if err := s.repomanager.Guests(s.db).Delete(ctx, id); err != nil {
		return mapNotFound(err,
			"The guest ID provided was not found in the system.",
			"Check that the ID is typed correctly.")
	}
	return nil
}
