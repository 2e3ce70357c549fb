// Package guests declares the persistence contract for hotel guests.
package guests

import (
	"context"

	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

// UniqueKeys are the guest columns that must not repeat across guests.
type UniqueKeys struct {
	Email     string
	RGNumber  string
	CPFNumber string
}

type Repository interface {
	Create(ctx context.Context, guest *models.Guest) (*models.Guest, error)
	FindByID(ctx context.Context, id string) (*models.Guest, error)

	// List returns guests newest first. An empty ownerID lists everyone's.
	List(ctx context.Context, ownerID string) ([]models.Guest, error)

	// Update rewrites every mutable column of guest.ID.
	Update(ctx context.Context, guest *models.Guest) (*models.Guest, error)
	Delete(ctx context.Context, id string) error

	// FindConflicts returns the unique keys of other guests sharing the
	// email, RG or CPF of keys. excludeID skips the guest being updated.
	FindConflicts(ctx context.Context, keys UniqueKeys, excludeID string) ([]UniqueKeys, error)
}
