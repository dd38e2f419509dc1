package billing

import (
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportStatus represents the lifecycle of one export attempt
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "PENDING"
	ExportStatusGenerating ExportStatus = "GENERATING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// IsValid checks if the export status is valid
func (s ExportStatus) IsValid() bool {
	switch s {
	case ExportStatusPending, ExportStatusGenerating, ExportStatusCompleted, ExportStatusFailed:
		return true
	}
	return false
}

// ExportRecord tracks one spreadsheet generation attempt for a debit
// note. Every attempt gets its own record; failures are retained with
// their error message.
type ExportRecord struct {
	shared.BaseEntity
	DebitNoteID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status       ExportStatus `gorm:"type:varchar(50);not null;default:'PENDING'"`
	FileName     string       `gorm:"type:varchar(255)"`
	StorageKey   string       `gorm:"type:varchar(500)"`
	FileSize     int64        `gorm:"not null;default:0"`
	ErrorMessage string       `gorm:"type:text"`
	ExportedBy   uuid.UUID    `gorm:"type:uuid;not null"`
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (ExportRecord) TableName() string {
	return "export_records"
}

// NewExportRecord creates a pending export attempt
func NewExportRecord(debitNoteID, exportedBy uuid.UUID) (*ExportRecord, error) {
	if debitNoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEBIT_NOTE", "Debit note ID cannot be empty")
	}
	if exportedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Exporter cannot be empty")
	}
	return &ExportRecord{
		BaseEntity:  shared.NewBaseEntity(),
		DebitNoteID: debitNoteID,
		Status:      ExportStatusPending,
		ExportedBy:  exportedBy,
	}, nil
}

// Start marks the attempt as generating
func (r *ExportRecord) Start() {
	r.Status = ExportStatusGenerating
	r.UpdatedAt = time.Now()
}

// Complete records a successful generation with the stored artifact
func (r *ExportRecord) Complete(fileName, storageKey string, size int64) {
	now := time.Now()
	r.Status = ExportStatusCompleted
	r.FileName = fileName
	r.StorageKey = storageKey
	r.FileSize = size
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Fail records a generation failure with its cause
func (r *ExportRecord) Fail(message string) {
	r.Status = ExportStatusFailed
	r.ErrorMessage = message
	r.UpdatedAt = time.Now()
}

// IsCompleted returns true if the artifact was stored successfully
func (r *ExportRecord) IsCompleted() bool {
	return r.Status == ExportStatusCompleted
}
