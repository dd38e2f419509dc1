package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestNote(t *testing.T, clientID uuid.UUID, number string) *billing.DebitNote {
	t.Helper()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	dn, err := billing.NewDebitNote(clientID, from, to, decimal.NewFromInt(26446), billing.SheetScopeAll, uuid.New(), "")
	require.NoError(t, err)
	dn.Number = number

	_, err = dn.AddLine(uuid.New(), billing.LineTotals{
		TotalUSD:      decimal.NewFromInt(700),
		TotalVND:      decimal.NewFromInt(18512200),
		VATAmount:     decimal.NewFromInt(423136),
		GrandTotalVND: decimal.NewFromInt(18935336),
	})
	require.NoError(t, err)
	return dn
}

func TestGormDebitNoteRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load round-trips lines and events", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		dn := newTestNote(t, uuid.New(), "DN-202607-00001")

		require.NoError(t, repo.Save(ctx, dn))

		loaded, err := repo.FindByID(ctx, dn.ID)
		require.NoError(t, err)
		assert.Equal(t, "DN-202607-00001", loaded.Number)
		assert.Equal(t, billing.DebitNoteStatusDraft, loaded.Status)
		require.Len(t, loaded.Lines, 1)
		assert.True(t, loaded.Lines[0].GrandTotalVND.Equal(decimal.NewFromInt(18935336)))
		require.Len(t, loaded.Events, 1)
		assert.Equal(t, billing.WorkflowActionCreated, loaded.Events[0].Action)
	})

	t.Run("find by number", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		dn := newTestNote(t, uuid.New(), "DN-202607-00002")
		require.NoError(t, repo.Save(ctx, dn))

		loaded, err := repo.FindByNumber(ctx, "DN-202607-00002")
		require.NoError(t, err)
		assert.Equal(t, dn.ID, loaded.ID)

		_, err = repo.FindByNumber(ctx, "DN-202607-99999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate numbers are rejected", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		first := newTestNote(t, uuid.New(), "DN-202607-00003")
		require.NoError(t, repo.Save(ctx, first))

		second := newTestNote(t, uuid.New(), "DN-202607-00003")
		err := repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("next sequence scans within the month", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		at := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

		seq, err := repo.NextSequence(ctx, at)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)

		require.NoError(t, repo.Save(ctx, newTestNote(t, uuid.New(), "DN-202607-00001")))
		require.NoError(t, repo.Save(ctx, newTestNote(t, uuid.New(), "DN-202607-00007")))
		// previous month must not bleed into July's sequence
		require.NoError(t, repo.Save(ctx, newTestNote(t, uuid.New(), "DN-202606-00042")))

		seq, err = repo.NextSequence(ctx, at)
		require.NoError(t, err)
		assert.Equal(t, 8, seq)
	})

	t.Run("find all filters by client and status", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		clientID := uuid.New()
		require.NoError(t, repo.Save(ctx, newTestNote(t, clientID, "DN-202607-00010")))
		require.NoError(t, repo.Save(ctx, newTestNote(t, clientID, "DN-202607-00011")))
		require.NoError(t, repo.Save(ctx, newTestNote(t, uuid.New(), "DN-202607-00012")))

		notes, total, err := repo.FindAll(ctx, billing.DebitNoteFilter{ClientID: &clientID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, notes, 2)

		exported := billing.DebitNoteStatusExported
		notes, total, err = repo.FindAll(ctx, billing.DebitNoteFilter{Status: &exported})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, notes)
	})

	t.Run("workflow transitions persist", func(t *testing.T) {
		repo := NewGormDebitNoteRepository(setupTestDB(t))
		dn := newTestNote(t, uuid.New(), "DN-202607-00020")
		require.NoError(t, repo.Save(ctx, dn))

		require.NoError(t, dn.Submit(dn.CreatedBy, ""))
		require.NoError(t, dn.Approve(uuid.New(), "ok"))
		require.NoError(t, repo.Save(ctx, dn))

		loaded, err := repo.FindByID(ctx, dn.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.DebitNoteStatusApproved, loaded.Status)
		require.Len(t, loaded.Events, 3)
	})
}

func TestGormExportRecordRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("latest completed wins over older and failed attempts", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormExportRecordRepository(db)
		noteID := uuid.New()

		older, err := billing.NewExportRecord(noteID, uuid.New())
		require.NoError(t, err)
		older.Start()
		older.Complete("old.xlsx", "exports/old.xlsx", 100)
		past := time.Now().Add(-time.Hour)
		older.CompletedAt = &past
		require.NoError(t, repo.Save(ctx, older))

		failed, err := billing.NewExportRecord(noteID, uuid.New())
		require.NoError(t, err)
		failed.Start()
		failed.Fail("boom")
		require.NoError(t, repo.Save(ctx, failed))

		latest, err := billing.NewExportRecord(noteID, uuid.New())
		require.NoError(t, err)
		latest.Start()
		latest.Complete("new.xlsx", "exports/new.xlsx", 200)
		require.NoError(t, repo.Save(ctx, latest))

		found, err := repo.FindLatestCompleted(ctx, noteID)
		require.NoError(t, err)
		assert.Equal(t, latest.ID, found.ID)
		assert.Equal(t, "new.xlsx", found.FileName)

		all, err := repo.FindByDebitNote(ctx, noteID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("no completed export is not found", func(t *testing.T) {
		repo := NewGormExportRecordRepository(setupTestDB(t))
		_, err := repo.FindLatestCompleted(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
