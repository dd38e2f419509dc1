package client

import (
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/google/uuid"
)

// Client represents one freight-forwarding customer that receives
// debit notes.
type Client struct {
	shared.BaseAggregateRoot
	Code          string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string `gorm:"type:varchar(200);not null"`
	NameEN        string `gorm:"type:varchar(200)"`
	Address       string `gorm:"type:text"`
	ContactPerson string `gorm:"type:varchar(200)"`
	ContactEmail  string `gorm:"type:varchar(200)"`
	ContactPhone  string `gorm:"type:varchar(50)"`
	TaxID         string `gorm:"type:varchar(50)"`
	Currency      string `gorm:"type:varchar(10);not null;default:'VND'"`
	IsActive      bool   `gorm:"not null;default:true"`
	Notes         string `gorm:"type:text"`

	Templates   []Template   `gorm:"foreignKey:ClientID;references:ID"`
	FeeMappings []FeeMapping `gorm:"foreignKey:ClientID;references:ID"`
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a new client
func NewClient(code, name, address string) (*Client, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_CODE", "Client code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	return &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Address:           address,
		Currency:          "VND",
		IsActive:          true,
	}, nil
}

// ActiveTemplate returns the active template for a sheet type, or nil
func (c *Client) ActiveTemplate(sheetType SheetType) *Template {
	for i := range c.Templates {
		t := &c.Templates[i]
		if t.SheetType == sheetType && t.IsActive {
			return t
		}
	}
	return nil
}

// ExchangeRate is a per-client USD to VND rate with an effective range.
// Administration data only; the rate applied to a debit note is supplied
// by the caller at creation time.
type ExchangeRate struct {
	shared.BaseEntity
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrencyFrom  string          `gorm:"type:varchar(10);not null;default:'USD'"`
	CurrencyTo    string          `gorm:"type:varchar(10);not null;default:'VND'"`
	Rate          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	EffectiveFrom time.Time       `gorm:"not null"`
	EffectiveTo   *time.Time
	Notes         string     `gorm:"type:text"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ExchangeRate) TableName() string {
	return "client_exchange_rates"
}

// EffectiveOn reports whether the rate covers the given date
func (r *ExchangeRate) EffectiveOn(on time.Time) bool {
	if on.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !on.After(*r.EffectiveTo)
}
