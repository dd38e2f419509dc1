package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements client.Repository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID, with templates and fee mappings
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*client.Client, error) {
	var c client.Client
	if err := r.db.WithContext(ctx).
		Preload("Templates").
		Preload("FeeMappings").
		First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByCode finds a client by its unique code
func (r *GormClientRepository) FindByCode(ctx context.Context, code string) (*client.Client, error) {
	var c client.Client
	if err := r.db.WithContext(ctx).
		Preload("Templates").
		Preload("FeeMappings").
		Where("code = ?", strings.ToUpper(code)).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindActiveTemplates finds the client's active templates
func (r *GormClientRepository) FindActiveTemplates(ctx context.Context, clientID uuid.UUID) ([]client.Template, error) {
	var templates []client.Template
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND is_active = ?", clientID, true).
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// FindActiveFeeMappings finds the client's active fee mappings for a
// sheet type, ordered by sort order
func (r *GormClientRepository) FindActiveFeeMappings(ctx context.Context, clientID uuid.UUID, sheetType client.SheetType) ([]client.FeeMapping, error) {
	var mappings []client.FeeMapping
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND sheet_type = ? AND is_active = ?", clientID, sheetType, true).
		Order("sort_order ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// Save persists a client
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	c.Code = strings.ToUpper(c.Code)
	return r.db.WithContext(ctx).Save(c).Error
}

// SaveTemplate persists a template after validating it
func (r *GormClientRepository) SaveTemplate(ctx context.Context, t *client.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(t).Error
}
