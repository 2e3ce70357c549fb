package models

import (
	"encoding/json"
	"time"
)

// RankedUser is a ranking row. It never carries email or password.
type RankedUser struct {
	ID                   string          `json:"id"`
	Username             string          `json:"username"`
	Points               int             `json:"points"`
	Forests              json.RawMessage `json:"forests"`
	ReadingProgress      *string         `json:"reading_progress"`
	LastInsight          *string         `json:"last_insight"`
	LastInsightReference *string         `json:"last_insight_reference"`
	LastSyncAt           *time.Time      `json:"last_sync_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func NewPagination(limit, offset, total int) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasNext: offset+limit < total,
		HasPrev: offset > 0,
	}
}

type RankingFilters struct {
	Period string `json:"period"`
	Year   *int   `json:"year"`
	Month  *int   `json:"month"`
}

type RankingPage struct {
	Users      []RankedUser    `json:"users"`
	Pagination Pagination      `json:"pagination"`
	Filters    *RankingFilters `json:"filters,omitempty"`
}

// RankingQuery selects a ranking page. An empty Period ranks by stored
// points; "year" and "month" rank by plants created in that period.
type RankingQuery struct {
	Limit  int
	Offset int
	Period string
	Year   int
	Month  int
}
