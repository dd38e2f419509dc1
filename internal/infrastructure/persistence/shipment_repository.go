package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// identifierColumns maps duplicate identifier fields to their database
// columns. Kept explicit so a bad field can never reach the query
// builder as raw SQL.
var identifierColumns = map[shipment.IdentifierField]string{
	shipment.FieldHBL:       "hbl",
	shipment.FieldMBL:       "mbl",
	shipment.FieldInvoiceNo: "invoice_no",
	shipment.FieldCDNo:      "cd_no",
}

// GormShipmentRepository implements shipment.Repository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment with its fee details
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	var s shipment.Shipment
	if err := r.db.WithContext(ctx).
		Preload("FeeDetails").
		First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindAll finds shipments matching the filter with a total count
func (r *GormShipmentRepository) FindAll(ctx context.Context, filter shipment.Filter) ([]shipment.Shipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&shipment.Shipment{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var shipments []shipment.Shipment
	if err := query.
		Preload("FeeDetails").
		Order("delivery_date DESC, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&shipments).Error; err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// FindBillable finds a client's ACTIVE shipments inside the period
func (r *GormShipmentRepository) FindBillable(ctx context.Context, clientID uuid.UUID, from, to time.Time, direction *shipment.Direction) ([]shipment.Shipment, error) {
	query := r.db.WithContext(ctx).
		Where("client_id = ? AND status = ?", clientID, shipment.StatusActive).
		Where("delivery_date >= ? AND delivery_date <= ?", from, to)
	if direction != nil {
		query = query.Where("direction = ?", *direction)
	}

	var shipments []shipment.Shipment
	if err := query.
		Preload("FeeDetails").
		Order("delivery_date ASC, created_at ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// FindByIDs finds shipments with fee details by ID set
func (r *GormShipmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shipment.Shipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var shipments []shipment.Shipment
	if err := r.db.WithContext(ctx).
		Preload("FeeDetails").
		Where("id IN ?", ids).
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// FindIdentifierMatches finds the client's other non-cancelled shipments
// holding the same identifier value
func (r *GormShipmentRepository) FindIdentifierMatches(ctx context.Context, clientID uuid.UUID, field shipment.IdentifierField, value string, excludeID uuid.UUID) ([]shipment.Shipment, error) {
	column, ok := identifierColumns[field]
	if !ok {
		return nil, shared.NewDomainError("INVALID_FIELD", "Unknown identifier field")
	}
	if value == "" {
		return nil, nil
	}

	var shipments []shipment.Shipment
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND "+column+" = ?", clientID, value).
		Where("status <> ?", shipment.StatusCancelled).
		Where("id <> ?", excludeID).
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// Save persists a shipment and its fee details
func (r *GormShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(s).Error
}

// SaveDetection persists a duplicate detection record
func (r *GormShipmentRepository) SaveDetection(ctx context.Context, d *shipment.DuplicateDetection) error {
	return r.db.WithContext(ctx).Save(d).Error
}
