package billing

import (
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
)

// WorkflowAction identifies a workflow transition recorded in the audit
// trail
type WorkflowAction string

const (
	WorkflowActionCreated   WorkflowAction = "CREATED"
	WorkflowActionSubmitted WorkflowAction = "SUBMITTED"
	WorkflowActionApproved  WorkflowAction = "APPROVED"
	WorkflowActionRejected  WorkflowAction = "REJECTED"
	WorkflowActionExported  WorkflowAction = "EXPORTED"
)

// IsValid checks if the action is a known workflow action
func (a WorkflowAction) IsValid() bool {
	switch a {
	case WorkflowActionCreated, WorkflowActionSubmitted, WorkflowActionApproved,
		WorkflowActionRejected, WorkflowActionExported:
		return true
	}
	return false
}

// WorkflowEvent is one append-only audit record of a debit note
// transition. Events are never updated or deleted.
type WorkflowEvent struct {
	shared.BaseEntity
	DebitNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Action      WorkflowAction  `gorm:"type:varchar(50);not null"`
	FromStatus  DebitNoteStatus `gorm:"type:varchar(50)"`
	ToStatus    DebitNoteStatus `gorm:"type:varchar(50);not null"`
	ActorID     uuid.UUID       `gorm:"type:uuid;not null"`
	Comment     string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (WorkflowEvent) TableName() string {
	return "debit_note_workflow_events"
}

// NewWorkflowEvent creates an audit record for one transition
func NewWorkflowEvent(debitNoteID uuid.UUID, action WorkflowAction, from, to DebitNoteStatus, actor uuid.UUID, comment string) WorkflowEvent {
	return WorkflowEvent{
		BaseEntity:  shared.NewBaseEntity(),
		DebitNoteID: debitNoteID,
		Action:      action,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     actor,
		Comment:     comment,
	}
}
