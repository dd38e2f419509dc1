package shipment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter defines filtering options for shipment queries
type Filter struct {
	ClientID  *uuid.UUID
	Direction *Direction
	Status    *Status
	Page      int
	PageSize  int
}

// Repository defines persistence operations for shipments
type Repository interface {
	// FindByID retrieves a shipment with its fee details
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindAll retrieves shipments matching a filter, newest delivery first
	FindAll(ctx context.Context, filter Filter) ([]Shipment, int64, error)

	// FindBillable retrieves a client's ACTIVE shipments with a delivery
	// date inside [from, to], optionally restricted to one direction,
	// ordered by delivery date
	FindBillable(ctx context.Context, clientID uuid.UUID, from, to time.Time, direction *Direction) ([]Shipment, error)

	// FindByIDs retrieves shipments with fee details by ID set
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Shipment, error)

	// FindIdentifierMatches finds other non-cancelled shipments of the
	// same client holding the same identifier value, excluding the
	// candidate itself
	FindIdentifierMatches(ctx context.Context, clientID uuid.UUID, field IdentifierField, value string, excludeID uuid.UUID) ([]Shipment, error)

	// Save persists a shipment and its fee details
	Save(ctx context.Context, s *Shipment) error

	// SaveDetection persists a duplicate detection record
	SaveDetection(ctx context.Context, d *DuplicateDetection) error
}
