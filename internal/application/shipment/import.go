package shipment

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	csvimport "github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/import"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// importMaxErrors caps the number of row errors reported per file
const importMaxErrors = 100

// ImportSummary reports the outcome of a CSV bulk import
type ImportSummary struct {
	TotalRows  int                  `json:"total_rows"`
	Imported   int                  `json:"imported"`
	Failed     int                  `json:"failed"`
	Duplicates int                  `json:"duplicates"`
	Errors     []csvimport.RowError `json:"errors,omitempty"`
}

// ImportCSV registers shipments in bulk from a CSV file. Rows that
// fail validation or creation are reported and skipped; valid rows are
// imported regardless. Duplicate identifier warnings do not fail a
// row, they are counted in the summary.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, createdBy *uuid.UUID) (*ImportSummary, error) {
	file, err := csvimport.ParseShipments(r, importMaxErrors)
	if err != nil {
		return nil, err
	}

	clientIDs := make(map[string]uuid.UUID)
	summary := &ImportSummary{TotalRows: file.TotalRows}

	for _, row := range file.Rows {
		clientID, ok, err := s.resolveClientCode(ctx, row.ClientCode, clientIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			file.Errors.AddReferenceError(row.Num, csvimport.ColClientCode, row.ClientCode, "client")
			continue
		}

		resp, err := s.Create(ctx, CreateShipmentRequest{
			ClientID:            clientID,
			Direction:           row.Direction,
			DeliveryDate:        row.DeliveryDate,
			InvoiceNo:           row.InvoiceNo,
			MBL:                 row.MBL,
			HBL:                 row.HBL,
			Term:                row.Term,
			NoOfPkgs:            row.NoOfPkgs,
			GrossWeight:         row.GrossWeight,
			ChargeableWeight:    row.ChargeableWeight,
			CDNo:                row.CDNo,
			CDType:              row.CDType,
			AirOceanRate:        row.AirOceanRate,
			OriginDestination:   row.OriginDestination,
			BackToBackInvoiceNo: row.BackToBackInvoiceNo,
			Note:                row.Note,
			CreatedBy:           createdBy,
		})
		if err != nil {
			file.Errors.Add(csvimport.NewRowError(row.Num, "", csvimport.ErrCodeImportValidation, err.Error()))
			continue
		}

		summary.Imported++
		if len(resp.DuplicateWarnings) > 0 {
			summary.Duplicates++
		}
	}

	summary.Failed = summary.TotalRows - summary.Imported
	summary.Errors = file.Errors.Errors()

	logger.L(ctx).Info("shipment CSV import finished",
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed),
		zap.Int("duplicates", summary.Duplicates))

	return summary, nil
}

// resolveClientCode looks up a client ID by code, memoizing hits so a
// file with one client does one lookup
func (s *Service) resolveClientCode(ctx context.Context, code string, cache map[string]uuid.UUID) (uuid.UUID, bool, error) {
	code = strings.ToUpper(code)
	if id, hit := cache[code]; hit {
		return id, true, nil
	}

	c, err := s.clientRepo.FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	cache[code] = c.ID
	return c.ID, true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
