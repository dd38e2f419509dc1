package billing

import (
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebitNoteCreatedEvent is published when a debit note is assembled
type DebitNoteCreatedEvent struct {
	shared.BaseDomainEvent
	Number     string
	ClientID   uuid.UUID
	TotalLines int
}

// NewDebitNoteCreatedEvent creates a new DebitNoteCreatedEvent
func NewDebitNoteCreatedEvent(dn *DebitNote) *DebitNoteCreatedEvent {
	return &DebitNoteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("debit_note.created", "DebitNote", dn.ID),
		Number:          dn.Number,
		ClientID:        dn.ClientID,
		TotalLines:      dn.TotalLines,
	}
}

// DebitNoteApprovedEvent is published when a reviewer approves a note
type DebitNoteApprovedEvent struct {
	shared.BaseDomainEvent
	Number     string
	ApprovedBy uuid.UUID
	GrandTotal decimal.Decimal
}

// NewDebitNoteApprovedEvent creates a new DebitNoteApprovedEvent
func NewDebitNoteApprovedEvent(dn *DebitNote, approver uuid.UUID) *DebitNoteApprovedEvent {
	return &DebitNoteApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("debit_note.approved", "DebitNote", dn.ID),
		Number:          dn.Number,
		ApprovedBy:      approver,
		GrandTotal:      dn.GrandTotalVND,
	}
}

// DebitNoteRejectedEvent is published when a reviewer rejects a note
type DebitNoteRejectedEvent struct {
	shared.BaseDomainEvent
	Number     string
	RejectedBy uuid.UUID
	Reason     string
}

// NewDebitNoteRejectedEvent creates a new DebitNoteRejectedEvent
func NewDebitNoteRejectedEvent(dn *DebitNote, actor uuid.UUID, reason string) *DebitNoteRejectedEvent {
	return &DebitNoteRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("debit_note.rejected", "DebitNote", dn.ID),
		Number:          dn.Number,
		RejectedBy:      actor,
		Reason:          reason,
	}
}

// DebitNoteExportedEvent is published on the first successful workbook
// generation
type DebitNoteExportedEvent struct {
	shared.BaseDomainEvent
	Number     string
	ExportedBy uuid.UUID
}

// NewDebitNoteExportedEvent creates a new DebitNoteExportedEvent
func NewDebitNoteExportedEvent(dn *DebitNote, actor uuid.UUID) *DebitNoteExportedEvent {
	return &DebitNoteExportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("debit_note.exported", "DebitNote", dn.ID),
		Number:          dn.Number,
		ExportedBy:      actor,
	}
}
