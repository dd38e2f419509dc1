package shipment

import (
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
)

// IdentifierField names one of the four shipment identifiers checked
// for collisions
type IdentifierField string

const (
	FieldHBL       IdentifierField = "HBL"
	FieldMBL       IdentifierField = "MBL"
	FieldInvoiceNo IdentifierField = "INV"
	FieldCDNo      IdentifierField = "CD"
)

// DetectionStatus tracks what happened to a recorded collision
type DetectionStatus string

const (
	DetectionStatusDetected DetectionStatus = "DETECTED"
	DetectionStatusResolved DetectionStatus = "RESOLVED"
	DetectionStatusIgnored  DetectionStatus = "IGNORED"
)

// DuplicateWarning is the advisory result of one identifier collision,
// returned to the caller alongside the saved shipment
type DuplicateWarning struct {
	Field              IdentifierField `json:"field"`
	Value              string          `json:"value"`
	ExistingShipmentID uuid.UUID       `json:"existing_shipment_id"`
}

// DuplicateDetection is the standing record of one collision, kept for
// audit and later resolution independent of what the user does with the
// warning
type DuplicateDetection struct {
	shared.BaseEntity
	ShipmentID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	DuplicateShipmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Field               IdentifierField `gorm:"type:varchar(20);not null"`
	Value               string          `gorm:"type:varchar(200);not null"`
	Status              DetectionStatus `gorm:"type:varchar(20);not null;default:'DETECTED'"`
	ResolvedBy          *uuid.UUID      `gorm:"type:uuid"`
	ResolvedAt          *time.Time
	Notes               string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DuplicateDetection) TableName() string {
	return "duplicate_detections"
}

// NewDuplicateDetection records one collision between two shipments
func NewDuplicateDetection(shipmentID, duplicateID uuid.UUID, field IdentifierField, value string) *DuplicateDetection {
	return &DuplicateDetection{
		BaseEntity:          shared.NewBaseEntity(),
		ShipmentID:          shipmentID,
		DuplicateShipmentID: duplicateID,
		Field:               field,
		Value:               value,
		Status:              DetectionStatusDetected,
	}
}

// Resolve marks the detection as handled
func (d *DuplicateDetection) Resolve(by uuid.UUID, ignored bool, notes string) {
	now := time.Now()
	if ignored {
		d.Status = DetectionStatusIgnored
	} else {
		d.Status = DetectionStatusResolved
	}
	d.ResolvedBy = &by
	d.ResolvedAt = &now
	d.Notes = notes
	d.UpdatedAt = now
}

// IdentifierValues returns the shipment's non-empty identifier fields
// in check order
func (s *Shipment) IdentifierValues() []struct {
	Field IdentifierField
	Value string
} {
	pairs := []struct {
		Field IdentifierField
		Value string
	}{
		{FieldHBL, s.HBL},
		{FieldMBL, s.MBL},
		{FieldInvoiceNo, s.InvoiceNo},
		{FieldCDNo, s.CDNo},
	}
	out := pairs[:0]
	for _, p := range pairs {
		if p.Value != "" {
			out = append(out, p)
		}
	}
	return out
}

// IdentifierCounts tallies identifier values across a set of shipments.
// The spreadsheet generator uses the same counts to highlight duplicate
// identifiers within one document.
type IdentifierCounts map[IdentifierField]map[string]int

// CountIdentifiers builds identifier tallies for the given shipments
func CountIdentifiers(shipments []Shipment) IdentifierCounts {
	counts := IdentifierCounts{
		FieldHBL:       {},
		FieldMBL:       {},
		FieldInvoiceNo: {},
		FieldCDNo:      {},
	}
	for i := range shipments {
		for _, p := range shipments[i].IdentifierValues() {
			counts[p.Field][p.Value]++
		}
	}
	return counts
}

// IsDuplicated reports whether a value occurs more than once in the tally
func (c IdentifierCounts) IsDuplicated(field IdentifierField, value string) bool {
	if value == "" {
		return false
	}
	return c[field][value] > 1
}
