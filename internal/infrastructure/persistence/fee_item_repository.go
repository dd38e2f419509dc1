package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFeeItemRepository implements fee.ItemRepository using GORM
type GormFeeItemRepository struct {
	db *gorm.DB
}

// NewGormFeeItemRepository creates a new GormFeeItemRepository
func NewGormFeeItemRepository(db *gorm.DB) *GormFeeItemRepository {
	return &GormFeeItemRepository{db: db}
}

// FindByID finds a fee item by its ID
func (r *GormFeeItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*fee.Item, error) {
	var item fee.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCode finds a fee item by its unique code
func (r *GormFeeItemRepository) FindByCode(ctx context.Context, code string) (*fee.Item, error) {
	var item fee.Item
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAllActive finds all active fee items ordered by sort order
func (r *GormFeeItemRepository) FindAllActive(ctx context.Context) ([]fee.Item, error) {
	var items []fee.Item
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, code ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save persists a fee item
func (r *GormFeeItemRepository) Save(ctx context.Context, item *fee.Item) error {
	item.Code = strings.ToUpper(item.Code)
	return r.db.WithContext(ctx).Save(item).Error
}
