package billing

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/excel"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyInfo is the issuing company identity printed on every workbook
type CompanyInfo struct {
	Name  string
	TaxID string
}

// ExportService renders approved debit notes into spreadsheet workbooks
// and tracks every generation attempt
type ExportService struct {
	debitNoteRepo billing.Repository
	exportRepo    billing.ExportRecordRepository
	shipmentRepo  shipment.Repository
	clientRepo    client.Repository
	feeItemRepo   fee.ItemRepository
	aggregator    *billing.FeeAggregator
	generator     *excel.Generator
	store         storage.ArtifactStore
	company       CompanyInfo
}

// NewExportService creates a new ExportService
func NewExportService(
	debitNoteRepo billing.Repository,
	exportRepo billing.ExportRecordRepository,
	shipmentRepo shipment.Repository,
	clientRepo client.Repository,
	feeItemRepo fee.ItemRepository,
	aggregator *billing.FeeAggregator,
	generator *excel.Generator,
	store storage.ArtifactStore,
	company CompanyInfo,
) *ExportService {
	return &ExportService{
		debitNoteRepo: debitNoteRepo,
		exportRepo:    exportRepo,
		shipmentRepo:  shipmentRepo,
		clientRepo:    clientRepo,
		feeItemRepo:   feeItemRepo,
		aggregator:    aggregator,
		generator:     generator,
		store:         store,
		company:       company,
	}
}

// ExportRecordResponse represents one export attempt in API responses
type ExportRecordResponse struct {
	ID           uuid.UUID  `json:"id"`
	DebitNoteID  uuid.UUID  `json:"debit_note_id"`
	Status       string     `json:"status"`
	FileName     string     `json:"file_name,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ExportedBy   uuid.UUID  `json:"exported_by"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Export generates a workbook for an approved debit note, stores the
// artifact and records the attempt. The first successful export moves
// the note to EXPORTED; later re-exports only add attempt records.
func (s *ExportService) Export(ctx context.Context, debitNoteID, actor uuid.UUID) (*ExportRecordResponse, error) {
	dn, err := s.debitNoteRepo.FindByID(ctx, debitNoteID)
	if err != nil {
		return nil, err
	}
	if !dn.Status.CanExport() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot export a debit note in status %s", dn.Status))
	}

	record, err := billing.NewExportRecord(dn.ID, actor)
	if err != nil {
		return nil, err
	}
	record.Start()
	if err := s.exportRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	fileName, storageKey, size, genErr := s.generate(ctx, dn, record.ID)
	if genErr != nil {
		record.Fail(genErr.Error())
		if saveErr := s.exportRepo.Save(ctx, record); saveErr != nil {
			logger.L(ctx).Error("failed to persist export failure",
				zap.String("record_id", record.ID.String()), zap.Error(saveErr))
		}
		return nil, genErr
	}

	record.Complete(fileName, storageKey, size)
	if err := s.exportRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	if err := dn.MarkExported(actor, fileName); err != nil {
		return nil, err
	}
	if err := s.debitNoteRepo.Save(ctx, dn); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("debit note exported",
		zap.String("number", dn.Number),
		zap.String("file", fileName),
		zap.Int64("bytes", size))

	return toExportRecordResponse(record), nil
}

// Download opens the most recent successful export of a debit note.
// The caller closes the reader.
func (s *ExportService) Download(ctx context.Context, debitNoteID uuid.UUID) (io.ReadCloser, *ExportRecordResponse, error) {
	record, err := s.exportRepo.FindLatestCompleted(ctx, debitNoteID)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.store.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return content, toExportRecordResponse(record), nil
}

// ListExports retrieves a debit note's export history, newest first
func (s *ExportService) ListExports(ctx context.Context, debitNoteID uuid.UUID) ([]ExportRecordResponse, error) {
	records, err := s.exportRepo.FindByDebitNote(ctx, debitNoteID)
	if err != nil {
		return nil, err
	}
	responses := make([]ExportRecordResponse, len(records))
	for i, r := range records {
		responses[i] = *toExportRecordResponse(r)
	}
	return responses, nil
}

// generate renders the workbook and stores it. A panic inside the
// renderer is converted into an error so the attempt can be recorded
// as FAILED.
func (s *ExportService) generate(ctx context.Context, dn *billing.DebitNote, recordID uuid.UUID) (fileName, storageKey string, size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workbook generation panicked: %v", r)
		}
	}()

	c, err := s.clientRepo.FindByID(ctx, dn.ClientID)
	if err != nil {
		return "", "", 0, err
	}
	input, err := s.buildWorkbookInput(ctx, dn, c)
	if err != nil {
		return "", "", 0, err
	}

	f, err := s.generator.Generate(*input)
	if err != nil {
		return "", "", 0, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", "", 0, err
	}

	fileName = excel.FileName(c.Code, dn.Number, dn.PeriodLabel())
	storageKey = fmt.Sprintf("%s/%s/%s", dn.ID, recordID, fileName)
	size, err = s.store.Put(ctx, storageKey, buf)
	if err != nil {
		return "", "", 0, err
	}
	return fileName, storageKey, size, nil
}

func (s *ExportService) buildWorkbookInput(ctx context.Context, dn *billing.DebitNote, c *client.Client) (*excel.WorkbookInput, error) {
	shipments, err := s.shipmentRepo.FindByIDs(ctx, dn.ShipmentIDs())
	if err != nil {
		return nil, err
	}
	if len(shipments) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Debit note references no shipments")
	}

	// The query returns shipments in storage order; workbook rows must
	// follow the document's line sequence.
	lineNo := make(map[uuid.UUID]int, len(dn.Lines))
	for _, l := range dn.Lines {
		lineNo[l.ShipmentID] = l.LineNo
	}
	sort.Slice(shipments, func(i, j int) bool {
		return lineNo[shipments[i].ID] < lineNo[shipments[j].ID]
	})

	items, err := s.feeItemRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]*fee.Item, len(items))
	itemPtrs := make([]*fee.Item, len(items))
	for i := range items {
		catalog[items[i].ID] = &items[i]
		itemPtrs[i] = &items[i]
	}

	byDirection := map[shipment.Direction][]shipment.Shipment{}
	for _, sh := range shipments {
		byDirection[sh.Direction] = append(byDirection[sh.Direction], sh)
	}

	input := &excel.WorkbookInput{
		CompanyName:   s.company.Name,
		CompanyTaxID:  s.company.TaxID,
		ClientCode:    c.Code,
		ClientName:    c.Name,
		ClientAddress: c.Address,
		Number:        dn.Number,
		BillingDate:   dn.BillingDate,
		Period:        dn.PeriodLabel(),
		ExchangeRate:  dn.ExchangeRate,
	}

	// Import sheet first when both directions are present
	for _, direction := range []shipment.Direction{shipment.DirectionImport, shipment.DirectionExport} {
		group := byDirection[direction]
		if len(group) == 0 {
			continue
		}
		sheet, err := s.buildSheet(ctx, dn, c, direction, group, itemPtrs, catalog)
		if err != nil {
			return nil, err
		}
		input.Sheets = append(input.Sheets, *sheet)
	}
	return input, nil
}

func (s *ExportService) buildSheet(ctx context.Context, dn *billing.DebitNote, c *client.Client, direction shipment.Direction, group []shipment.Shipment, items []*fee.Item, catalog map[uuid.UUID]*fee.Item) (*excel.SheetInput, error) {
	sheetType := client.SheetTypeImport
	if direction == shipment.DirectionExport {
		sheetType = client.SheetTypeExport
	}

	tpl := defaultTemplate(sheetType)
	if active := c.ActiveTemplate(sheetType); active != nil {
		tpl = *active
	}

	mappings, err := s.clientRepo.FindActiveFeeMappings(ctx, c.ID, sheetType)
	if err != nil {
		return nil, err
	}

	// Only fee items actually charged on this sheet's shipments get a
	// column; laying out the whole catalog would overflow the fee range.
	used := make(map[uuid.UUID]bool)
	for i := range group {
		for _, fd := range group[i].FeeDetails {
			used[fd.FeeItemID] = true
		}
	}
	usedItems := make([]*fee.Item, 0, len(used))
	for _, item := range items {
		if used[item.ID] {
			usedItems = append(usedItems, item)
		}
	}

	columns, err := excel.AssignColumns(tpl, usedItems, mappings)
	if err != nil {
		return nil, err
	}

	rows := make([]excel.RowInput, len(group))
	for i := range group {
		totals, err := s.aggregator.Aggregate(group[i].FeeDetails, catalog, dn.ExchangeRate)
		if err != nil {
			return nil, err
		}
		rows[i] = excel.RowInput{Shipment: &group[i], Fees: totals.FeeAmounts}
	}

	return &excel.SheetInput{
		Template:   tpl,
		SheetName:  tpl.SheetName(c.Code, dn.PeriodLabel()),
		Columns:    columns,
		Rows:       rows,
		Duplicates: shipment.CountIdentifiers(group),
	}, nil
}

func defaultTemplate(sheetType client.SheetType) client.Template {
	if sheetType == client.SheetTypeExport {
		return client.DefaultExportTemplate()
	}
	return client.DefaultImportTemplate()
}

func toExportRecordResponse(r *billing.ExportRecord) *ExportRecordResponse {
	return &ExportRecordResponse{
		ID:           r.ID,
		DebitNoteID:  r.DebitNoteID,
		Status:       string(r.Status),
		FileName:     r.FileName,
		FileSize:     r.FileSize,
		ErrorMessage: r.ErrorMessage,
		ExportedBy:   r.ExportedBy,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
	}
}
