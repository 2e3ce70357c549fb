package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

const (
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100

	PeriodYear  = "year"
	PeriodMonth = "month"
)

func invalidLimit() error {
	return common.NewValidationError(
		"The limit must be a number between 1 and 100.",
		"Send a valid value for the 'limit' parameter.",
	)
}

func invalidOffset() error {
	return common.NewValidationError(
		"The offset must be a number greater than or equal to 0.",
		"Send a valid value for the 'offset' parameter.",
	)
}

func missingYear(period string) error {
	return common.NewValidationError(
		fmt.Sprintf("The year is required when period is '%s'.", period),
		"Send a value for the 'year' parameter.",
	)
}

func invalidYear(period string) error {
	return common.NewValidationError(
		fmt.Sprintf("The year must be a valid number when period is '%s'.", period),
		"Send a valid value for the 'year' parameter.",
	)
}

func invalidMonth() error {
	return common.NewValidationError(
		"The month must be a number between 1 and 12.",
		"Send a valid value for the 'month' parameter.",
	)
}

// ParseRankingQuery reads the raw query-string values of a ranking request.
// Empty limit and offset fall back to 10 and 0.
func ParseRankingQuery(limit, offset, period, year, month string) (models.RankingQuery, error) {
	q := models.RankingQuery{Limit: DefaultRankingLimit, Period: period}

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return q, invalidLimit()
		}
		q.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return q, invalidOffset()
		}
		q.Offset = n
	}

	switch period {
	case "":
		return q, validatePage(q.Limit, q.Offset)
	case PeriodYear, PeriodMonth:
	default:
		return q, common.NewValidationError(
			"The period must be 'year' or 'month'.",
			"Send a valid value for the 'period' parameter.",
		)
	}

	if year == "" {
		return q, missingYear(period)
	}
	n, err := strconv.Atoi(year)
	if err != nil {
		return q, invalidYear(period)
	}
	q.Year = n

	if month != "" {
		n, err := strconv.Atoi(month)
		if err != nil {
			if period == PeriodMonth {
				return q, invalidMonth()
			}
		} else {
			q.Month = n
		}
	} else if period == PeriodMonth {
		return q, invalidMonth()
	}

	return q, validateRankingQuery(q)
}

func validatePage(limit, offset int) error {
	if limit < 1 || limit > MaxRankingLimit {
		return invalidLimit()
	}
	if offset < 0 {
		return invalidOffset()
	}
	return nil
}

func validateRankingQuery(q models.RankingQuery) error {
	if err := validatePage(q.Limit, q.Offset); err != nil {
		return err
	}
	if q.Period == PeriodMonth && (q.Month < 1 || q.Month > 12) {
		return invalidMonth()
	}
	return nil
}

// ListByPoints ranks every user with points by their stored total.
func (s *UserService) ListByPoints(ctx context.Context, limit, offset int) (*models.RankingPage, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	list, err := repo.ListByPoints(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ranking: %w", err)
	}
	total, err := repo.CountWithPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("count ranking: %w", err)
	}

	return &models.RankingPage{
		Users:      nonNilRanked(list),
		Pagination: models.NewPagination(limit, offset, total),
	}, nil
}

// ListByPointsWithPeriod ranks users by plants created in a year or month.
func (s *UserService) ListByPointsWithPeriod(ctx context.Context, q models.RankingQuery) (*models.RankingPage, error) {
	if err := validateRankingQuery(q); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	list, err := repo.ListByPeriodPoints(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list period ranking: %w", err)
	}
	total, err := repo.CountWithPeriodPoints(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count period ranking: %w", err)
	}

	year := q.Year
	filters := &models.RankingFilters{Period: q.Period, Year: &year}
	if q.Month != 0 {
		month := q.Month
		filters.Month = &month
	}

	return &models.RankingPage{
		Users:      nonNilRanked(list),
		Pagination: models.NewPagination(q.Limit, q.Offset, total),
		Filters:    filters,
	}, nil
}

// Ranking dispatches on q.Period.
func (s *UserService) Ranking(ctx context.Context, q models.RankingQuery) (*models.RankingPage, error) {
	if q.Period == "" {
		return s.ListByPoints(ctx, q.Limit, q.Offset)
	}
	return s.ListByPointsWithPeriod(ctx, q)
}

func nonNilRanked(list []models.RankedUser) []models.RankedUser {
	if list == nil {
		return []models.RankedUser{}
	}
	return list
}
