package csvimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names recognized in shipment CSV files
const (
	ColClientCode          = "client_code"
	ColDirection           = "direction"
	ColDeliveryDate        = "delivery_date"
	ColInvoiceNo           = "invoice_no"
	ColMBL                 = "mbl"
	ColHBL                 = "hbl"
	ColTerm                = "term"
	ColPackages            = "packages"
	ColGrossWeight         = "gross_weight"
	ColChargeableWeight    = "chargeable_weight"
	ColCDNo                = "cd_no"
	ColCDType              = "cd_type"
	ColAirOceanRate        = "air_ocean_rate"
	ColOriginDestination   = "origin_destination"
	ColBackToBackInvoiceNo = "back_to_back_invoice_no"
	ColNote                = "note"
)

// RequiredShipmentColumns are the headers a shipment file must have
var RequiredShipmentColumns = []string{ColClientCode, ColDirection}

// Delivery dates are accepted in ISO or day-first form, matching the
// formats seen in forwarding documents
var deliveryDateFormats = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// ShipmentRow is one validated record from a shipment CSV file
type ShipmentRow struct {
	Num                 int
	ClientCode          string
	Direction           string
	DeliveryDate        *time.Time
	InvoiceNo           string
	MBL                 string
	HBL                 string
	Term                string
	NoOfPkgs            int
	GrossWeight         decimal.Decimal
	ChargeableWeight    decimal.Decimal
	CDNo                string
	CDType              string
	AirOceanRate        string
	OriginDestination   string
	BackToBackInvoiceNo string
	Note                string
}

// ShipmentFile is the outcome of parsing a shipment CSV file. Rows
// holds the records that passed field validation; Errors holds the
// per-row failures. Blank records are skipped and counted in neither.
type ShipmentFile struct {
	Rows      []ShipmentRow
	Errors    *ErrorCollection
	TotalRows int
}

// ParseShipments reads and validates an entire shipment CSV file. A
// missing required header fails the whole file; row-level problems are
// collected so valid rows can still be imported.
func ParseShipments(r io.Reader, maxErrors int) (*ShipmentFile, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	if missing := reader.MissingColumns(RequiredShipmentColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	file := &ShipmentFile{Errors: NewErrorCollection(maxErrors)}
	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			file.TotalRows++
			file.Errors.Add(NewRowError(reader.rowNum, "", ErrCodeImportMalformedRow, err.Error()))
			continue
		}
		if row.IsEmpty() {
			continue
		}
		file.TotalRows++

		sr, ok := parseShipmentRow(row, file.Errors)
		if ok {
			file.Rows = append(file.Rows, sr)
		}
	}

	if file.TotalRows == 0 {
		return nil, ErrNoDataRows
	}
	return file, nil
}

func parseShipmentRow(row *Row, errs *ErrorCollection) (ShipmentRow, bool) {
	sr := ShipmentRow{
		Num:                 row.Num,
		ClientCode:          strings.ToUpper(row.Get(ColClientCode)),
		Direction:           strings.ToUpper(row.Get(ColDirection)),
		InvoiceNo:           row.Get(ColInvoiceNo),
		MBL:                 row.Get(ColMBL),
		HBL:                 row.Get(ColHBL),
		Term:                row.Get(ColTerm),
		CDNo:                row.Get(ColCDNo),
		CDType:              row.Get(ColCDType),
		AirOceanRate:        row.Get(ColAirOceanRate),
		OriginDestination:   row.Get(ColOriginDestination),
		BackToBackInvoiceNo: row.Get(ColBackToBackInvoiceNo),
		Note:                row.Get(ColNote),
	}

	ok := true
	if sr.ClientCode == "" {
		errs.AddRequiredError(row.Num, ColClientCode)
		ok = false
	}
	if sr.Direction != "IMPORT" && sr.Direction != "EXPORT" {
		errs.Add(NewRowErrorWithValue(row.Num, ColDirection, ErrCodeImportInvalidFormat,
			"direction must be IMPORT or EXPORT", row.Get(ColDirection)))
		ok = false
	}

	if v := row.Get(ColDeliveryDate); v != "" {
		t, err := parseDeliveryDate(v)
		if err != nil {
			errs.AddFormatError(row.Num, ColDeliveryDate, "YYYY-MM-DD or DD/MM/YYYY", v)
			ok = false
		} else {
			sr.DeliveryDate = &t
		}
	}

	if v := row.Get(ColPackages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs.AddTypeError(row.Num, ColPackages, "non-negative integer", v)
			ok = false
		} else {
			sr.NoOfPkgs = n
		}
	}

	sr.GrossWeight = parseWeight(row, ColGrossWeight, errs, &ok)
	sr.ChargeableWeight = parseWeight(row, ColChargeableWeight, errs, &ok)

	return sr, ok
}

func parseWeight(row *Row, col string, errs *ErrorCollection, ok *bool) decimal.Decimal {
	v := row.Get(col)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil || d.IsNegative() {
		errs.AddTypeError(row.Num, col, "non-negative number", v)
		*ok = false
		return decimal.Zero
	}
	return d
}

func parseDeliveryDate(v string) (time.Time, error) {
	for _, layout := range deliveryDateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
