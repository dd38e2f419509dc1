package billing

import (
	"fmt"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebitNoteStatus represents the lifecycle status of a debit note
type DebitNoteStatus string

const (
	DebitNoteStatusDraft         DebitNoteStatus = "DRAFT"          // Assembled, editable by workflow only
	DebitNoteStatusPendingReview DebitNoteStatus = "PENDING_REVIEW" // Submitted, awaiting a second pair of eyes
	DebitNoteStatusApproved      DebitNoteStatus = "APPROVED"       // Cleared for export
	DebitNoteStatusRejected      DebitNoteStatus = "REJECTED"       // Retained for audit; shipments released
	DebitNoteStatusExported      DebitNoteStatus = "EXPORTED"       // At least one workbook was generated
)

// IsValid checks if the status is a valid DebitNoteStatus
func (s DebitNoteStatus) IsValid() bool {
	switch s {
	case DebitNoteStatusDraft, DebitNoteStatusPendingReview, DebitNoteStatusApproved,
		DebitNoteStatusRejected, DebitNoteStatusExported:
		return true
	}
	return false
}

// String returns the string representation of DebitNoteStatus
func (s DebitNoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further review transitions are possible
func (s DebitNoteStatus) IsTerminal() bool {
	return s == DebitNoteStatusRejected || s == DebitNoteStatusExported
}

// CanExport returns true if a workbook may be generated in this status
func (s DebitNoteStatus) CanExport() bool {
	return s == DebitNoteStatusApproved || s == DebitNoteStatusExported
}

// SheetScope selects which directions a debit note covers
type SheetScope string

const (
	SheetScopeImport SheetScope = "IMPORT"
	SheetScopeExport SheetScope = "EXPORT"
	SheetScopeAll    SheetScope = "ALL"
)

// IsValid checks if the sheet scope is valid
func (s SheetScope) IsValid() bool {
	return s == SheetScopeImport || s == SheetScopeExport || s == SheetScopeAll
}

// NumberFor formats a sequential debit note number, e.g. DN-202608-00042
func NumberFor(seq int, at time.Time) string {
	return fmt.Sprintf("DN-%s-%05d", at.Format("200601"), seq)
}

// DebitNoteLine is the immutable computed snapshot of one shipment's
// contribution to a debit note at creation time
type DebitNoteLine struct {
	shared.BaseEntity
	DebitNoteID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShipmentID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	TotalUSD      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TotalVND      decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`
	VATAmount     decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`
	GrandTotalVND decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`
	FreightUSD    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	LocalUSD      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	PayOnBehalf   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DebitNoteLine) TableName() string {
	return "debit_note_lines"
}

// DebitNote is one billing document for one client covering one date
// range. It is mutated only through workflow transitions and is never
// deleted; rejected notes are retained for audit.
type DebitNote struct {
	shared.BaseAggregateRoot
	Number       string          `gorm:"type:varchar(100);uniqueIndex"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PeriodFrom   time.Time       `gorm:"not null"`
	PeriodTo     time.Time       `gorm:"not null"`
	BillingDate  time.Time       `gorm:"not null"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	TotalUSD      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TotalVND      decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`
	TotalVAT      decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`
	GrandTotalVND decimal.Decimal `gorm:"type:decimal(15,0);not null;default:0"`

	Status     DebitNoteStatus `gorm:"type:varchar(50);not null;default:'DRAFT'"`
	SheetScope SheetScope      `gorm:"type:varchar(20);not null;default:'ALL'"`

	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason string `gorm:"type:text"`
	TotalLines      int    `gorm:"not null;default:0"`
	Notes           string `gorm:"type:text"`

	Lines  []DebitNoteLine `gorm:"foreignKey:DebitNoteID;references:ID"`
	Events []WorkflowEvent `gorm:"foreignKey:DebitNoteID;references:ID"`
}

// TableName returns the table name for GORM
func (DebitNote) TableName() string {
	return "debit_notes"
}

// NewDebitNote creates a debit note in DRAFT status and records the
// CREATED workflow event
func NewDebitNote(clientID uuid.UUID, periodFrom, periodTo time.Time, exchangeRate decimal.Decimal, scope SheetScope, createdBy uuid.UUID, notes string) (*DebitNote, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Creator cannot be empty")
	}
	if periodTo.Before(periodFrom) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	if !scope.IsValid() {
		return nil, shared.NewDomainError("INVALID_SCOPE", fmt.Sprintf("Unknown sheet scope %q", scope))
	}

	dn := &DebitNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		PeriodFrom:        periodFrom,
		PeriodTo:          periodTo,
		BillingDate:       time.Now(),
		ExchangeRate:      exchangeRate,
		TotalUSD:          decimal.Zero,
		TotalVND:          decimal.Zero,
		TotalVAT:          decimal.Zero,
		GrandTotalVND:     decimal.Zero,
		Status:            DebitNoteStatusDraft,
		SheetScope:        scope,
		CreatedBy:         createdBy,
		Notes:             notes,
		Lines:             make([]DebitNoteLine, 0),
		Events:            make([]WorkflowEvent, 0),
	}
	dn.appendEvent(WorkflowActionCreated, "", DebitNoteStatusDraft, createdBy, "")
	dn.AddDomainEvent(NewDebitNoteCreatedEvent(dn))
	return dn, nil
}

// AddLine appends one shipment's computed totals as a snapshot line and
// accumulates the header totals. Only allowed while the note is DRAFT.
func (dn *DebitNote) AddLine(shipmentID uuid.UUID, totals LineTotals) (*DebitNoteLine, error) {
	if dn.Status != DebitNoteStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft debit note")
	}
	if shipmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHIPMENT", "Shipment ID cannot be empty")
	}

	line := DebitNoteLine{
		BaseEntity:    shared.NewBaseEntity(),
		DebitNoteID:   dn.ID,
		ShipmentID:    shipmentID,
		LineNo:        len(dn.Lines) + 1,
		TotalUSD:      totals.TotalUSD,
		TotalVND:      totals.TotalVND,
		VATAmount:     totals.VATAmount,
		GrandTotalVND: totals.GrandTotalVND,
		FreightUSD:    totals.FreightUSD,
		LocalUSD:      totals.LocalUSD,
		PayOnBehalf:   totals.PayOnBehalfUSD,
	}
	dn.Lines = append(dn.Lines, line)

	dn.TotalUSD = dn.TotalUSD.Add(totals.TotalUSD)
	dn.TotalVND = dn.TotalVND.Add(totals.TotalVND)
	dn.TotalVAT = dn.TotalVAT.Add(totals.VATAmount)
	dn.GrandTotalVND = dn.GrandTotalVND.Add(totals.GrandTotalVND)
	dn.TotalLines = len(dn.Lines)
	dn.UpdatedAt = time.Now()

	return &dn.Lines[len(dn.Lines)-1], nil
}

// Submit moves the note from DRAFT to PENDING_REVIEW
func (dn *DebitNote) Submit(actor uuid.UUID, comment string) error {
	if dn.Status != DebitNoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit: current status is %s", dn.Status))
	}
	if len(dn.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot submit a debit note without lines")
	}

	dn.transition(DebitNoteStatusPendingReview, WorkflowActionSubmitted, actor, comment)
	return nil
}

// Approve moves the note from PENDING_REVIEW to APPROVED. The approver
// must differ from the creator (segregation of duties).
func (dn *DebitNote) Approve(actor uuid.UUID, comment string) error {
	if dn.Status != DebitNoteStatusPendingReview {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve: current status is %s", dn.Status))
	}
	if actor == dn.CreatedBy {
		return shared.NewDomainError("SELF_APPROVAL_FORBIDDEN",
			"Creator cannot approve their own debit note")
	}

	now := time.Now()
	dn.ApprovedBy = &actor
	dn.ApprovedAt = &now
	dn.transition(DebitNoteStatusApproved, WorkflowActionApproved, actor, comment)
	dn.AddDomainEvent(NewDebitNoteApprovedEvent(dn, actor))
	return nil
}

// Reject moves the note from PENDING_REVIEW to REJECTED. The caller is
// responsible for releasing the referenced shipments in the same
// transaction.
func (dn *DebitNote) Reject(actor uuid.UUID, reason string) error {
	if dn.Status != DebitNoteStatusPendingReview {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reject: current status is %s", dn.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	dn.RejectionReason = reason
	dn.transition(DebitNoteStatusRejected, WorkflowActionRejected, actor, reason)
	dn.AddDomainEvent(NewDebitNoteRejectedEvent(dn, actor, reason))
	return nil
}

// MarkExported records the first successful workbook generation.
// Subsequent generations of an already EXPORTED note do not re-transition.
func (dn *DebitNote) MarkExported(actor uuid.UUID, comment string) error {
	if dn.Status == DebitNoteStatusExported {
		return nil
	}
	if dn.Status != DebitNoteStatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot export: current status is %s", dn.Status))
	}

	dn.transition(DebitNoteStatusExported, WorkflowActionExported, actor, comment)
	dn.AddDomainEvent(NewDebitNoteExportedEvent(dn, actor))
	return nil
}

// ShipmentIDs returns the shipments referenced by the note's lines
func (dn *DebitNote) ShipmentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(dn.Lines))
	for i, line := range dn.Lines {
		ids[i] = line.ShipmentID
	}
	return ids
}

// LinesGrandTotal sums the grand totals of all lines. Outside REJECTED
// status it must equal GrandTotalVND.
func (dn *DebitNote) LinesGrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range dn.Lines {
		sum = sum.Add(line.GrandTotalVND)
	}
	return sum
}

// PeriodLabel formats the billing period as MMYYYY for sheet names and
// filenames
func (dn *DebitNote) PeriodLabel() string {
	return dn.PeriodFrom.Format("012006")
}

func (dn *DebitNote) transition(to DebitNoteStatus, action WorkflowAction, actor uuid.UUID, comment string) {
	from := dn.Status
	dn.Status = to
	dn.appendEvent(action, from, to, actor, comment)
	dn.UpdatedAt = time.Now()
	dn.IncrementVersion()
}

func (dn *DebitNote) appendEvent(action WorkflowAction, from, to DebitNoteStatus, actor uuid.UUID, comment string) {
	dn.Events = append(dn.Events, NewWorkflowEvent(dn.ID, action, from, to, actor, comment))
}
