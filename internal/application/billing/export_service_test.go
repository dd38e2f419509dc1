package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/excel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type exportFixture struct {
	*serviceFixture
	exportRepo *MockExportRecordRepository
	store      *MockArtifactStore
	export     *ExportService
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	base := newServiceFixture(t)
	f := &exportFixture{
		serviceFixture: base,
		exportRepo:     new(MockExportRecordRepository),
		store:          new(MockArtifactStore),
	}
	f.export = NewExportService(
		base.debitNoteRepo,
		f.exportRepo,
		base.shipmentRepo,
		base.clientRepo,
		base.feeItemRepo,
		billing.DefaultFeeAggregator(),
		excel.NewGenerator(),
		f.store,
		CompanyInfo{Name: "UNI CONSULTING CO.LTD", TaxID: "0312345678"},
	)
	return f
}

func (f *exportFixture) approvedNote(t *testing.T, shipmentIDs ...uuid.UUID) *billing.DebitNote {
	t.Helper()
	dn := pendingNote(t, uuid.New(), shipmentIDs...)
	require.NoError(t, dn.Approve(uuid.New(), ""))
	return dn
}

func TestExportService_Export_Success(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	actor := uuid.New()

	sh := f.billableShipment(t)
	sh.HBL = "HBL-001"
	require.NoError(t, sh.MarkBilled())
	dn := f.approvedNote(t, sh.ID)

	f.debitNoteRepo.On("FindByID", ctx, dn.ID).Return(dn, nil)
	f.clientRepo.On("FindByID", ctx, dn.ClientID).Return(f.client, nil)
	f.shipmentRepo.On("FindByIDs", ctx, []uuid.UUID{sh.ID}).Return([]shipment.Shipment{*sh}, nil)
	f.feeItemRepo.On("FindAllActive", ctx).Return(f.catalogItems(), nil)
	f.clientRepo.On("FindActiveFeeMappings", ctx, f.client.ID, client.SheetTypeImport).
		Return([]client.FeeMapping{}, nil)
	f.exportRepo.On("Save", ctx, mock.AnythingOfType("*billing.ExportRecord")).Return(nil)
	f.store.On("Put", ctx, mock.AnythingOfType("string"), mock.Anything).Return(int64(4096), nil)
	f.debitNoteRepo.On("Save", ctx, dn).Return(nil)

	resp, err := f.export.Export(ctx, dn.ID, actor)

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, int64(4096), resp.FileSize)
	assert.True(t, strings.HasPrefix(resp.FileName, "ACME_"+dn.Number+"_"), "file name %s", resp.FileName)
	assert.True(t, strings.HasSuffix(resp.FileName, ".xlsx"))
	assert.NotNil(t, resp.CompletedAt)
	assert.Equal(t, billing.DebitNoteStatusExported, dn.Status)
	f.store.AssertExpectations(t)
}

func TestExportService_Export_ReExportDoesNotReTransition(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	sh := f.billableShipment(t)
	require.NoError(t, sh.MarkBilled())
	dn := f.approvedNote(t, sh.ID)
	require.NoError(t, dn.MarkExported(uuid.New(), ""))
	eventsBefore := len(dn.Events)

	f.debitNoteRepo.On("FindByID", ctx, dn.ID).Return(dn, nil)
	f.clientRepo.On("FindByID", ctx, dn.ClientID).Return(f.client, nil)
	f.shipmentRepo.On("FindByIDs", ctx, []uuid.UUID{sh.ID}).Return([]shipment.Shipment{*sh}, nil)
	f.feeItemRepo.On("FindAllActive", ctx).Return(f.catalogItems(), nil)
	f.clientRepo.On("FindActiveFeeMappings", ctx, f.client.ID, client.SheetTypeImport).
		Return([]client.FeeMapping{}, nil)
	f.exportRepo.On("Save", ctx, mock.Anything).Return(nil)
	f.store.On("Put", ctx, mock.Anything, mock.Anything).Return(int64(2048), nil)
	f.debitNoteRepo.On("Save", ctx, dn).Return(nil)

	resp, err := f.export.Export(ctx, dn.ID, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, billing.DebitNoteStatusExported, dn.Status)
	assert.Len(t, dn.Events, eventsBefore)
}

func TestExportService_Export_DraftForbidden(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	from, to := period()
	dn, err := billing.NewDebitNote(uuid.New(), from, to, decimal.RequireFromString("26446"), billing.SheetScopeAll, uuid.New(), "")
	require.NoError(t, err)

	f.debitNoteRepo.On("FindByID", ctx, dn.ID).Return(dn, nil)

	_, err = f.export.Export(ctx, dn.ID, uuid.New())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	f.exportRepo.AssertNotCalled(t, "Save")
}

func TestExportService_Export_StoreFailureRecorded(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	sh := f.billableShipment(t)
	require.NoError(t, sh.MarkBilled())
	dn := f.approvedNote(t, sh.ID)

	f.debitNoteRepo.On("FindByID", ctx, dn.ID).Return(dn, nil)
	f.clientRepo.On("FindByID", ctx, dn.ClientID).Return(f.client, nil)
	f.shipmentRepo.On("FindByIDs", ctx, []uuid.UUID{sh.ID}).Return([]shipment.Shipment{*sh}, nil)
	f.feeItemRepo.On("FindAllActive", ctx).Return(f.catalogItems(), nil)
	f.clientRepo.On("FindActiveFeeMappings", ctx, f.client.ID, client.SheetTypeImport).
		Return([]client.FeeMapping{}, nil)
	f.exportRepo.On("Save", ctx, mock.Anything).Return(nil)
	f.store.On("Put", ctx, mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))

	_, err := f.export.Export(ctx, dn.ID, uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// The attempt is saved twice, once GENERATING and once FAILED
	failed := false
	for _, call := range f.exportRepo.Calls {
		if r, ok := call.Arguments.Get(1).(*billing.ExportRecord); ok && r.Status == billing.ExportStatusFailed {
			failed = true
			assert.Contains(t, r.ErrorMessage, "disk full")
		}
	}
	assert.True(t, failed, "expected a FAILED export record save")
	assert.Equal(t, billing.DebitNoteStatusApproved, dn.Status)
	f.debitNoteRepo.AssertNotCalled(t, "Save", ctx, dn)
}

func TestExportService_RowsFollowLineOrder(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	first := f.billableShipment(t)
	first.HBL = "HBL-FIRST"
	second := f.billableShipment(t)
	second.HBL = "HBL-SECOND"
	require.NoError(t, first.MarkBilled())
	require.NoError(t, second.MarkBilled())
	dn := f.approvedNote(t, first.ID, second.ID)

	// Storage hands the shipments back in the opposite of line order
	f.shipmentRepo.On("FindByIDs", ctx, []uuid.UUID{first.ID, second.ID}).
		Return([]shipment.Shipment{*second, *first}, nil)
	f.feeItemRepo.On("FindAllActive", ctx).Return(f.catalogItems(), nil)
	f.clientRepo.On("FindActiveFeeMappings", ctx, f.client.ID, client.SheetTypeImport).
		Return([]client.FeeMapping{}, nil)

	input, err := f.export.buildWorkbookInput(ctx, dn, f.client)

	require.NoError(t, err)
	require.Len(t, input.Sheets, 1)
	rows := input.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "HBL-FIRST", rows[0].Shipment.HBL)
	assert.Equal(t, "HBL-SECOND", rows[1].Shipment.HBL)
}

func TestExportService_ColumnsOnlyForChargedFees(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	// A catalog wider than the template's fee range; the shipment is
	// only charged two of the items, so only those two need columns.
	catalog := make([]fee.Item, 0, 15)
	for i := 0; i < 15; i++ {
		item, err := fee.NewItem(uuid.New(), fmt.Sprintf("FEE_%02d", i), fmt.Sprintf("Fee %02d", i), false, false, i+1)
		require.NoError(t, err)
		catalog = append(catalog, *item)
	}

	sh, err := shipment.NewShipment(f.client.ID, shipment.DirectionImport, nil)
	require.NoError(t, err)
	_, err = sh.AddFeeDetail(catalog[3].ID, decimal.RequireFromString("500"), false, nil)
	require.NoError(t, err)
	_, err = sh.AddFeeDetail(catalog[9].ID, decimal.RequireFromString("200"), false, nil)
	require.NoError(t, err)
	require.NoError(t, sh.MarkBilled())
	dn := f.approvedNote(t, sh.ID)

	f.shipmentRepo.On("FindByIDs", ctx, []uuid.UUID{sh.ID}).Return([]shipment.Shipment{*sh}, nil)
	f.feeItemRepo.On("FindAllActive", ctx).Return(catalog, nil)
	f.clientRepo.On("FindActiveFeeMappings", ctx, f.client.ID, client.SheetTypeImport).
		Return([]client.FeeMapping{}, nil)

	input, err := f.export.buildWorkbookInput(ctx, dn, f.client)

	require.NoError(t, err)
	require.Len(t, input.Sheets, 1)
	columns := input.Sheets[0].Columns
	require.Len(t, columns, 2)
	got := []uuid.UUID{columns[0].FeeItemID, columns[1].FeeItemID}
	assert.Contains(t, got, catalog[3].ID)
	assert.Contains(t, got, catalog[9].ID)
}

func TestExportService_Download(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	debitNoteID := uuid.New()

	record, err := billing.NewExportRecord(debitNoteID, uuid.New())
	require.NoError(t, err)
	record.Complete("ACME_DN-202606-00001_062026.xlsx", "key/file.xlsx", 4096)

	f.exportRepo.On("FindLatestCompleted", ctx, debitNoteID).Return(record, nil)
	f.store.On("Get", ctx, "key/file.xlsx").
		Return(io.NopCloser(bytes.NewReader([]byte("workbook"))), nil)

	content, resp, err := f.export.Download(ctx, debitNoteID)

	require.NoError(t, err)
	defer content.Close()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))
	assert.Equal(t, "ACME_DN-202606-00001_062026.xlsx", resp.FileName)
}

func TestExportService_Download_NoCompletedExport(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	debitNoteID := uuid.New()

	f.exportRepo.On("FindLatestCompleted", ctx, debitNoteID).Return(nil, shared.ErrNotFound)

	_, _, err := f.export.Download(ctx, debitNoteID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}
