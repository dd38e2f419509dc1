package billing

import (
	"context"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
)

// TransactionScope provides transactional access to the billing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories touched by
// debit note assembly within a single transaction. Claiming and releasing
// shipments must move together with the note they belong to, so both
// repositories share the same underlying transaction.
type TransactionalRepositories interface {
	// DebitNotes returns the debit note repository scoped to the current transaction
	DebitNotes() billing.Repository
	// Shipments returns the shipment repository scoped to the current transaction
	Shipments() shipment.Repository
}

// NoOpTransactionScope runs the function against the given repositories
// without a real transaction. Useful for tests.
type NoOpTransactionScope struct {
	debitNoteRepo billing.Repository
	shipmentRepo  shipment.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(debitNoteRepo billing.Repository, shipmentRepo shipment.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{debitNoteRepo: debitNoteRepo, shipmentRepo: shipmentRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DebitNotes returns the debit note repository.
func (s *NoOpTransactionScope) DebitNotes() billing.Repository {
	return s.debitNoteRepo
}

// Shipments returns the shipment repository.
func (s *NoOpTransactionScope) Shipments() shipment.Repository {
	return s.shipmentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
