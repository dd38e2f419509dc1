package shipment

import (
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction distinguishes the two legacy workbook layouts
type Direction string

const (
	DirectionImport Direction = "IMPORT"
	DirectionExport Direction = "EXPORT"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionImport || d == DirectionExport
}

// Status represents the lifecycle status of a shipment
type Status string

const (
	StatusActive    Status = "ACTIVE"    // Available for billing
	StatusBilled    Status = "BILLED"    // Claimed by a debit note
	StatusCancelled Status = "CANCELLED" // Soft-deleted, never billed
)

// IsValid checks if the status is a valid shipment status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusBilled, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Shipment is one transportation/customs event owned by a client.
// Shipments are never hard-deleted; cancellation is a status change.
type Shipment struct {
	shared.BaseAggregateRoot
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`

	DeliveryDate     *time.Time      `gorm:"index"`
	InvoiceNo        string          `gorm:"type:varchar(100);index"`
	MBL              string          `gorm:"type:varchar(100);index"` // master bill of lading
	HBL              string          `gorm:"type:varchar(100);index"` // house bill of lading
	Term             string          `gorm:"type:varchar(50)"`        // trade term (FOB, EXW, DAP, ...)
	NoOfPkgs         int             `gorm:"not null;default:0"`
	GrossWeight      decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	ChargeableWeight decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	CDNo             string          `gorm:"type:varchar(100);index"` // customs declaration no.
	CDType           string          `gorm:"type:varchar(20)"`
	AirOceanRate     string          `gorm:"type:varchar(100)"`

	Direction           Direction `gorm:"type:varchar(20);not null;default:'IMPORT'"`
	OriginDestination   string    `gorm:"type:varchar(200)"` // export layout column M
	BackToBackInvoiceNo string    `gorm:"type:varchar(200)"` // import layout column BG

	Status      Status `gorm:"type:varchar(50);not null;default:'ACTIVE'"`
	IsDuplicate bool   `gorm:"not null;default:false"`
	Note        string `gorm:"type:text"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`

	FeeDetails []FeeDetail `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a new shipment in ACTIVE status
func NewShipment(clientID uuid.UUID, direction Direction, createdBy *uuid.UUID) (*Shipment, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Direction must be IMPORT or EXPORT")
	}
	return &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		Direction:         direction,
		Status:            StatusActive,
		CreatedBy:         createdBy,
		FeeDetails:        make([]FeeDetail, 0),
	}, nil
}

// AddFeeDetail attaches one fee amount to the shipment
func (s *Shipment) AddFeeDetail(feeItemID uuid.UUID, amountUSD decimal.Decimal, taxInclusive bool, preTaxAmount *decimal.Decimal) (*FeeDetail, error) {
	if feeItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE_ITEM", "Fee item ID cannot be empty")
	}
	if amountUSD.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fee amount cannot be negative")
	}
	detail := FeeDetail{
		BaseEntity:     shared.NewBaseEntity(),
		ShipmentID:     s.ID,
		FeeItemID:      feeItemID,
		AmountUSD:      amountUSD,
		Currency:       "USD",
		IsTaxInclusive: taxInclusive,
		PreTaxAmount:   preTaxAmount,
	}
	s.FeeDetails = append(s.FeeDetails, detail)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return &s.FeeDetails[len(s.FeeDetails)-1], nil
}

// MarkBilled claims the shipment for a debit note
func (s *Shipment) MarkBilled() error {
	if s.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only ACTIVE shipments can be billed")
	}
	s.Status = StatusBilled
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Release reverts a billed shipment to ACTIVE so it can be billed again.
// Used when the claiming debit note is rejected.
func (s *Shipment) Release() error {
	if s.Status != StatusBilled {
		return shared.NewDomainError("INVALID_STATE", "Only BILLED shipments can be released")
	}
	s.Status = StatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Cancel soft-deletes the shipment
func (s *Shipment) Cancel() error {
	if s.Status == StatusBilled {
		return shared.NewDomainError("INVALID_STATE", "Billed shipments cannot be cancelled")
	}
	s.Status = StatusCancelled
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// MarkDuplicate flags the shipment after identifier collisions were found.
// Advisory only: a flagged shipment can still be saved and billed.
func (s *Shipment) MarkDuplicate() {
	s.IsDuplicate = true
	s.UpdatedAt = time.Now()
}

// FeeDetail is one cost-type amount attached to a shipment
type FeeDetail struct {
	shared.BaseEntity
	ShipmentID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	FeeItemID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	AmountUSD      decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0"`
	AmountVND      decimal.Decimal  `gorm:"type:decimal(15,0);not null;default:0"`
	Currency       string           `gorm:"type:varchar(10);not null;default:'USD'"`
	IsTaxInclusive bool             `gorm:"not null;default:false"`
	PreTaxAmount   *decimal.Decimal `gorm:"type:decimal(15,2)"` // precomputed degrossed amount, when known
	Notes          string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeeDetail) TableName() string {
	return "shipment_fee_details"
}
