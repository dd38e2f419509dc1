package fee

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines persistence operations for the fee-type catalog
type ItemRepository interface {
	// FindByID retrieves a fee item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByCode retrieves a fee item by its unique code
	FindByCode(ctx context.Context, code string) (*Item, error)

	// FindAllActive retrieves all active fee items ordered by sort order
	FindAllActive(ctx context.Context) ([]Item, error)

	// Save persists a fee item
	Save(ctx context.Context, item *Item) error
}
