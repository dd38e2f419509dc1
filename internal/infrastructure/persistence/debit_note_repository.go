package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDebitNoteRepository implements billing.Repository using GORM
type GormDebitNoteRepository struct {
	db *gorm.DB
}

// NewGormDebitNoteRepository creates a new GormDebitNoteRepository
func NewGormDebitNoteRepository(db *gorm.DB) *GormDebitNoteRepository {
	return &GormDebitNoteRepository{db: db}
}

// FindByID finds a debit note with its lines and workflow events
func (r *GormDebitNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.DebitNote, error) {
	var dn billing.DebitNote
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&dn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dn, nil
}

// FindByNumber finds a debit note by its unique number
func (r *GormDebitNoteRepository) FindByNumber(ctx context.Context, number string) (*billing.DebitNote, error) {
	var dn billing.DebitNote
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("number = ?", number).
		First(&dn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dn, nil
}

// FindAll finds debit notes matching the filter, newest first
func (r *GormDebitNoteRepository) FindAll(ctx context.Context, filter billing.DebitNoteFilter) ([]*billing.DebitNote, int64, error) {
	query := r.db.WithContext(ctx).Model(&billing.DebitNote{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("billing_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("billing_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var notes []*billing.DebitNote
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// NextSequence returns the next sequential number within the month of
// the given time. Concurrent callers may receive the same value; the
// unique index on number rejects the loser, which retries.
func (r *GormDebitNoteRepository) NextSequence(ctx context.Context, at time.Time) (int, error) {
	prefix := fmt.Sprintf("DN-%s-", at.Format("200601"))

	var latest string
	err := r.db.WithContext(ctx).
		Model(&billing.DebitNote{}).
		Select("number").
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Scan(&latest).Error
	if err != nil {
		return 0, err
	}
	if latest == "" {
		return 1, nil
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed debit note number %q: %w", latest, err)
	}
	return seq + 1, nil
}

// Save persists a debit note with its lines and events
func (r *GormDebitNoteRepository) Save(ctx context.Context, dn *billing.DebitNote) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(dn).Error
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// isUniqueViolation detects unique constraint errors across the
// postgres and sqlite drivers
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// GormExportRecordRepository implements billing.ExportRecordRepository
// using GORM
type GormExportRecordRepository struct {
	db *gorm.DB
}

// NewGormExportRecordRepository creates a new GormExportRecordRepository
func NewGormExportRecordRepository(db *gorm.DB) *GormExportRecordRepository {
	return &GormExportRecordRepository{db: db}
}

// FindByID finds an export record by its ID
func (r *GormExportRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ExportRecord, error) {
	var rec billing.ExportRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByDebitNote finds all export attempts for a note, newest first
func (r *GormExportRecordRepository) FindByDebitNote(ctx context.Context, debitNoteID uuid.UUID) ([]*billing.ExportRecord, error) {
	var records []*billing.ExportRecord
	if err := r.db.WithContext(ctx).
		Where("debit_note_id = ?", debitNoteID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindLatestCompleted finds the most recent successful export
func (r *GormExportRecordRepository) FindLatestCompleted(ctx context.Context, debitNoteID uuid.UUID) (*billing.ExportRecord, error) {
	var rec billing.ExportRecord
	if err := r.db.WithContext(ctx).
		Where("debit_note_id = ? AND status = ?", debitNoteID, billing.ExportStatusCompleted).
		Order("completed_at DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Save persists an export record
func (r *GormExportRecordRepository) Save(ctx context.Context, record *billing.ExportRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
