package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DebitNoteFilter narrows debit note listings
type DebitNoteFilter struct {
	ClientID *uuid.UUID
	Status   *DebitNoteStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Repository defines the persistence interface for debit notes
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DebitNote, error)
	FindByNumber(ctx context.Context, number string) (*DebitNote, error)
	FindAll(ctx context.Context, filter DebitNoteFilter) ([]*DebitNote, int64, error)
	// NextSequence returns the next sequential number within the given
	// month, for formatting with NumberFor.
	NextSequence(ctx context.Context, at time.Time) (int, error)
	Save(ctx context.Context, dn *DebitNote) error
}

// ExportRecordRepository defines the persistence interface for export
// attempts
type ExportRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExportRecord, error)
	FindByDebitNote(ctx context.Context, debitNoteID uuid.UUID) ([]*ExportRecord, error)
	// FindLatestCompleted returns the most recent successful export for
	// the note, or a not-found error.
	FindLatestCompleted(ctx context.Context, debitNoteID uuid.UUID) (*ExportRecord, error)
	Save(ctx context.Context, record *ExportRecord) error
}
