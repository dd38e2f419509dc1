package fee

import (
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCodePayOnBehalf marks pass-through reimbursements that are billed
// without margin and never taxed.
const ItemCodePayOnBehalf = "PAY_ON_BEHALF"

// Category groups fee items (Freight, Handling, D/O, Trucking, ...)
type Category struct {
	shared.BaseEntity
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(200);not null"`
	Description     string          `gorm:"type:text"`
	IsVATApplicable bool            `gorm:"not null;default:false"`
	VATRate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	SortOrder       int             `gorm:"not null;default:0"`
	IsActive        bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "fee_categories"
}

// Item is one billable fee type. The VAT-applicability flag partitions
// items into freight (exempt) and local charges; the tax-inclusivity
// flag marks items whose recorded amount already contains VAT.
type Item struct {
	shared.BaseEntity
	CategoryID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Code            string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string    `gorm:"type:varchar(200);not null"`
	Description     string    `gorm:"type:text"`
	DefaultCurrency string    `gorm:"type:varchar(10);not null;default:'USD'"`
	IsVATApplicable bool      `gorm:"not null;default:false"`
	IsTaxInclusive  bool      `gorm:"not null;default:false"`
	SortOrder       int       `gorm:"not null;default:0"`
	IsActive        bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "fee_items"
}

// NewItem creates a new fee item
func NewItem(categoryID uuid.UUID, code, name string, vatApplicable, taxInclusive bool, sortOrder int) (*Item, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_FEE_CODE", "Fee item code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FEE_NAME", "Fee item name cannot be empty")
	}
	return &Item{
		BaseEntity:      shared.NewBaseEntity(),
		CategoryID:      categoryID,
		Code:            code,
		Name:            name,
		DefaultCurrency: "USD",
		IsVATApplicable: vatApplicable,
		IsTaxInclusive:  taxInclusive,
		SortOrder:       sortOrder,
		IsActive:        true,
	}, nil
}

// IsPayOnBehalf reports whether this item is a pass-through reimbursement
func (i *Item) IsPayOnBehalf() bool {
	return i.Code == ItemCodePayOnBehalf
}

// Deactivate hides the item from new fee entry without breaking history
func (i *Item) Deactivate() {
	i.IsActive = false
	i.UpdatedAt = time.Now()
}
