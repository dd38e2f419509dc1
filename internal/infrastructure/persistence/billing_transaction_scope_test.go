package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	billingapp "github.com/byununivn-max/eximuni-debit-note/internal/application/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()

	t.Run("commits note and shipments together", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormTransactionScope(db)

		sh := billableShipment(t, uuid.New(), time.Now(), "HBL-TX-1")
		require.NoError(t, NewGormShipmentRepository(db).Save(ctx, sh))
		dn := newTestNote(t, uuid.New(), "DN-202607-00010")

		err := scope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
			if err := repos.DebitNotes().Save(ctx, dn); err != nil {
				return err
			}
			if err := sh.MarkBilled(); err != nil {
				return err
			}
			return repos.Shipments().Save(ctx, sh)
		})
		require.NoError(t, err)

		loaded, err := NewGormDebitNoteRepository(db).FindByID(ctx, dn.ID)
		require.NoError(t, err)
		assert.Equal(t, "DN-202607-00010", loaded.Number)
		reloaded, err := NewGormShipmentRepository(db).FindByID(ctx, sh.ID)
		require.NoError(t, err)
		assert.Equal(t, shipment.StatusBilled, reloaded.Status)
	})

	t.Run("rolls back note and shipments when the function fails", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormTransactionScope(db)

		sh := billableShipment(t, uuid.New(), time.Now(), "HBL-TX-2")
		require.NoError(t, NewGormShipmentRepository(db).Save(ctx, sh))
		dn := newTestNote(t, uuid.New(), "DN-202607-00011")

		err := scope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
			if err := repos.DebitNotes().Save(ctx, dn); err != nil {
				return err
			}
			if err := sh.MarkBilled(); err != nil {
				return err
			}
			if err := repos.Shipments().Save(ctx, sh); err != nil {
				return err
			}
			return errors.New("connection reset")
		})
		require.EqualError(t, err, "connection reset")

		_, err = NewGormDebitNoteRepository(db).FindByID(ctx, dn.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		reloaded, err := NewGormShipmentRepository(db).FindByID(ctx, sh.ID)
		require.NoError(t, err)
		assert.Equal(t, shipment.StatusActive, reloaded.Status)
	})
}

// brokenShipmentScope runs real transactions but fails shipment saves
// past a threshold, standing in for a connection dropping mid-write.
type brokenShipmentScope struct {
	db        *gorm.DB
	saves     int
	failAfter int
}

func (s *brokenShipmentScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&brokenShipmentRepos{tx: tx, scope: s})
	})
}

type brokenShipmentRepos struct {
	tx    *gorm.DB
	scope *brokenShipmentScope
}

func (r *brokenShipmentRepos) DebitNotes() billing.Repository {
	return NewGormDebitNoteRepository(r.tx)
}

func (r *brokenShipmentRepos) Shipments() shipment.Repository {
	return &brokenShipmentRepo{Repository: NewGormShipmentRepository(r.tx), scope: r.scope}
}

type brokenShipmentRepo struct {
	shipment.Repository
	scope *brokenShipmentScope
}

func (r *brokenShipmentRepo) Save(ctx context.Context, s *shipment.Shipment) error {
	r.scope.saves++
	if r.scope.saves > r.scope.failAfter {
		return errors.New("write: connection reset by peer")
	}
	return r.Repository.Save(ctx, s)
}

// A failed save of the second claimed shipment must leave nothing
// behind: no persisted note and every shipment still ACTIVE.
func TestDebitNoteAssemblyRollsBackOnShipmentSaveFailure(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	c, err := client.NewClient("ACME", "Acme Trading Co", "12 Industrial Rd, HCMC")
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(ctx, c))

	item, err := fee.NewItem(uuid.New(), "SEA_FREIGHT", "Sea freight", false, false, 1)
	require.NoError(t, err)
	require.NoError(t, NewGormFeeItemRepository(db).Save(ctx, item))

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	shipmentRepo := NewGormShipmentRepository(db)
	var ids []uuid.UUID
	for _, hbl := range []string{"HBL-RB-1", "HBL-RB-2"} {
		sh, err := shipment.NewShipment(c.ID, shipment.DirectionImport, nil)
		require.NoError(t, err)
		delivered := from.AddDate(0, 0, 10)
		sh.DeliveryDate = &delivered
		sh.HBL = hbl
		_, err = sh.AddFeeDetail(item.ID, decimal.NewFromInt(500), false, nil)
		require.NoError(t, err)
		require.NoError(t, shipmentRepo.Save(ctx, sh))
		ids = append(ids, sh.ID)
	}

	scope := &brokenShipmentScope{db: db, failAfter: 1}
	service := billingapp.NewDebitNoteService(
		scope,
		NewGormDebitNoteRepository(db),
		shipmentRepo,
		NewGormClientRepository(db),
		NewGormFeeItemRepository(db),
		billing.DefaultFeeAggregator(),
	)

	creator := uuid.New()
	_, err = service.Create(ctx, billingapp.CreateDebitNoteRequest{
		ClientID:     c.ID,
		PeriodFrom:   from,
		PeriodTo:     to,
		ExchangeRate: decimal.NewFromInt(26446),
		CreatedBy:    &creator,
	})
	require.Error(t, err)

	notes, total, err := NewGormDebitNoteRepository(db).FindAll(ctx, billing.DebitNoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Zero(t, total)

	for _, id := range ids {
		sh, err := shipmentRepo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, shipment.StatusActive, sh.Status)
	}
}
