package persistence

import (
	"context"

	billingapp "github.com/byununivn-max/eximuni-debit-note/internal/application/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"gorm.io/gorm"
)

// GormTransactionScope implements billing's TransactionScope using GORM
// transactions so that a debit note and the shipments it claims or
// releases are persisted atomically.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DebitNotes returns the debit note repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DebitNotes() billing.Repository {
	return NewGormDebitNoteRepository(r.tx)
}

// Shipments returns the shipment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Shipments() shipment.Repository {
	return NewGormShipmentRepository(r.tx)
}

var _ billingapp.TransactionScope = (*GormTransactionScope)(nil)
var _ billingapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
