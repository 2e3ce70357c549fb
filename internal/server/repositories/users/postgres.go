package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

// PointsPerPlant is the value of one plant when ranking by period.
const PointsPerPlant = 15

const userColumns = `id, username, email, password, features, points, forests,
	reading_progress, last_insight, last_insight_reference, last_sync_at,
	created_at, updated_at`

const rankedColumns = `id, username, points, forests, reading_progress,
	last_insight, last_insight_reference, last_sync_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var forests []byte
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Features, &u.Points, &forests,
		&u.ReadingProgress, &u.LastInsight, &u.LastInsightReference, &u.LastSyncAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if forests != nil {
		u.Forests = forests
	}
	return u, nil
}

func scanRanked(rows *sql.Rows) ([]models.RankedUser, error) {
	defer rows.Close()

	list := []models.RankedUser{}
	for rows.Next() {
		var u models.RankedUser
		var forests []byte
		if err := rows.Scan(&u.ID, &u.Username, &u.Points, &forests, &u.ReadingProgress,
			&u.LastInsight, &u.LastInsightReference, &u.LastSyncAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if forests != nil {
			u.Forests = forests
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password, features)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Password, models.StringArray(user.Features)))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET username = $2, email = $3, password = $4, updated_at = timezone('utc', now())
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.Password))
}

func (r *PostgresRepository) SetFeatures(ctx context.Context, userID string, features []string) (*models.User, error) {
	query :=
		`UPDATE users
		 SET features = $2, updated_at = timezone('utc', now())
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, userID, models.StringArray(features)))
}

func (r *PostgresRepository) UpdateGamification(ctx context.Context, userID string, state *models.GamificationState) (*models.User, error) {
	query :=
		`UPDATE users
		 SET points = $2, forests = $3, reading_progress = $4, last_insight = $5,
		     last_insight_reference = $6, last_sync_at = $7, updated_at = timezone('utc', now())
		 WHERE id = $1
		 RETURNING ` + userColumns

	var forests any
	if len(state.Forests) > 0 && string(state.Forests) != "null" {
		forests = string(state.Forests)
	}

	return scanUser(r.db.QueryRowContext(ctx, query, userID, state.Points, forests,
		state.ReadingProgress, state.LastInsight, state.LastInsightReference, state.LastSyncAt))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *PostgresRepository) ListByPoints(ctx context.Context, limit, offset int) ([]models.RankedUser, error) {
	query :=
		`SELECT ` + rankedColumns + `
		 FROM users
		 ORDER BY points DESC, created_at ASC
		 LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanRanked(rows)
}

func (r *PostgresRepository) CountWithPoints(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE points > 0`).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// periodCondition narrows plant_record to the requested period. Parameter
// numbering starts at first.
func periodCondition(q models.RankingQuery, first int) (string, []any) {
	switch q.Period {
	case "year":
		return fmt.Sprintf(
			` AND EXTRACT(YEAR FROM (plant_record->>'createdAt')::timestamptz) = $%d`, first),
			[]any{q.Year}
	case "month":
		return fmt.Sprintf(
			` AND EXTRACT(YEAR FROM (plant_record->>'createdAt')::timestamptz) = $%d`+
				` AND EXTRACT(MONTH FROM (plant_record->>'createdAt')::timestamptz) = $%d`, first, first+1),
			[]any{q.Year, q.Month}
	default:
		return "", nil
	}
}

func periodPointsCTE(cond string) string {
	return fmt.Sprintf(`WITH user_period_points AS (
		SELECT u.id, u.username, u.forests, u.reading_progress, u.last_insight,
		       u.last_insight_reference, u.last_sync_at, u.created_at, u.updated_at,
		       COALESCE(SUM(CASE WHEN plant_record ? 'createdAt'%s THEN %d ELSE 0 END), 0)::INTEGER AS period_points
		FROM users u
		CROSS JOIN jsonb_array_elements(u.forests) AS forest_record
		CROSS JOIN jsonb_array_elements(jsonb_extract_path(forest_record, 'plants')) AS plant_record
		GROUP BY u.id, u.username, u.forests, u.reading_progress, u.last_insight,
		         u.last_insight_reference, u.last_sync_at, u.created_at, u.updated_at
	)`, cond, PointsPerPlant)
}

func (r *PostgresRepository) ListByPeriodPoints(ctx context.Context, q models.RankingQuery) ([]models.RankedUser, error) {
	cond, args := periodCondition(q, 3)

	query := periodPointsCTE(cond) + `
		SELECT id, username, period_points AS points, forests, reading_progress,
		       last_insight, last_insight_reference, last_sync_at, created_at, updated_at
		FROM user_period_points
		WHERE period_points > 0
		ORDER BY period_points DESC, created_at ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, append([]any{q.Limit, q.Offset}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanRanked(rows)
}

func (r *PostgresRepository) CountWithPeriodPoints(ctx context.Context, q models.RankingQuery) (int, error) {
	cond, args := periodCondition(q, 1)

	query := periodPointsCTE(cond) + `
		SELECT COUNT(*) FROM user_period_points WHERE period_points > 0`

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}
