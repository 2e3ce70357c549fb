package guests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

const guestColumns = `id, user_id, name, email, phone, badge_name, gender, rg_number, cpf_number,
	passport_number, medication_details, blood_type, blood_rh_factor, health_observations,
	special_needs_details, has_heart_condition, has_diabetes, has_high_blood_pressure,
	has_low_blood_pressure, to_char(birth_date, 'YYYY-MM-DD'), nationality, address,
	address_number, address_complement, neighborhood, city, state, country,
	emergency_contact_name, emergency_contact_phone, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuest(row rowScanner) (*models.Guest, error) {
	g := &models.Guest{}
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Email, &g.Phone, &g.BadgeName, &g.Gender,
		&g.RGNumber, &g.CPFNumber, &g.PassportNumber, &g.MedicationDetails, &g.BloodType,
		&g.BloodRhFactor, &g.HealthObservations, &g.SpecialNeedsDetails, &g.HasHeartCondition,
		&g.HasDiabetes, &g.HasHighBloodPressure, &g.HasLowBloodPressure, &g.BirthDate,
		&g.Nationality, &g.Address, &g.AddressNumber, &g.AddressComplement, &g.Neighborhood,
		&g.City, &g.State, &g.Country, &g.EmergencyContactName, &g.EmergencyContactPhone,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

// values lists the writable columns in table order, starting at name.
func values(g *models.Guest) []any {
	return []any{g.Name, g.Email, g.Phone, g.BadgeName, g.Gender, g.RGNumber, g.CPFNumber,
		g.PassportNumber, g.MedicationDetails, g.BloodType, g.BloodRhFactor, g.HealthObservations,
		g.SpecialNeedsDetails, g.HasHeartCondition, g.HasDiabetes, g.HasHighBloodPressure,
		g.HasLowBloodPressure, g.BirthDate, g.Nationality, g.Address, g.AddressNumber,
		g.AddressComplement, g.Neighborhood, g.City, g.State, g.Country, g.EmergencyContactName,
		g.EmergencyContactPhone}
}

func (r *PostgresRepository) Create(ctx context.Context, guest *models.Guest) (*models.Guest, error) {
	query :=
		`INSERT INTO guests (user_id, name, email, phone, badge_name, gender, rg_number, cpf_number,
		   passport_number, medication_details, blood_type, blood_rh_factor, health_observations,
		   special_needs_details, has_heart_condition, has_diabetes, has_high_blood_pressure,
		   has_low_blood_pressure, birth_date, nationality, address, address_number,
		   address_complement, neighborhood, city, state, country, emergency_contact_name,
		   emergency_contact_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		   $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
		 RETURNING ` + guestColumns

	args := append([]any{guest.UserID}, values(guest)...)
	return scanGuest(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id = $1 LIMIT 1`
	return scanGuest(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]models.Guest, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+guestColumns+` FROM guests ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+guestColumns+` FROM guests WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := []models.Guest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) Update(ctx context.Context, guest *models.Guest) (*models.Guest, error) {
	query :=
		`UPDATE guests
		 SET name = $2, email = $3, phone = $4, badge_name = $5, gender = $6, rg_number = $7,
		   cpf_number = $8, passport_number = $9, medication_details = $10, blood_type = $11,
		   blood_rh_factor = $12, health_observations = $13, special_needs_details = $14,
		   has_heart_condition = $15, has_diabetes = $16, has_high_blood_pressure = $17,
		   has_low_blood_pressure = $18, birth_date = $19, nationality = $20, address = $21,
		   address_number = $22, address_complement = $23, neighborhood = $24, city = $25,
		   state = $26, country = $27, emergency_contact_name = $28, emergency_contact_phone = $29,
		   updated_at = timezone('utc', now())
		 WHERE id = $1
		 RETURNING ` + guestColumns

	args := append([]any{guest.ID}, values(guest)...)
	return scanGuest(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) FindConflicts(ctx context.Context, keys UniqueKeys, excludeID string) ([]UniqueKeys, error) {
	query :=
		`SELECT email, rg_number, cpf_number
		 FROM guests
		 WHERE (email = $1 OR rg_number = $2 OR cpf_number = $3)`
	args := []any{keys.Email, keys.RGNumber, keys.CPFNumber}
	if excludeID != "" {
		query += ` AND id != $4`
		args = append(args, excludeID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []UniqueKeys
	for rows.Next() {
		var k UniqueKeys
		if err := rows.Scan(&k.Email, &k.RGNumber, &k.CPFNumber); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
