package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for clients and their
// layout configuration
type Repository interface {
	// FindByID retrieves a client by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByCode retrieves a client by its unique code
	FindByCode(ctx context.Context, code string) (*Client, error)

	// FindActiveTemplates retrieves the client's active templates
	FindActiveTemplates(ctx context.Context, clientID uuid.UUID) ([]Template, error)

	// FindActiveFeeMappings retrieves the client's active fee mappings
	// for a sheet type, ordered by sort order
	FindActiveFeeMappings(ctx context.Context, clientID uuid.UUID, sheetType SheetType) ([]FeeMapping, error)

	// Save persists a client
	Save(ctx context.Context, c *Client) error

	// SaveTemplate persists a template; the template must pass Validate
	SaveTemplate(ctx context.Context, t *Template) error
}
