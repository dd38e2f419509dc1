package client

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SheetType identifies which legacy workbook layout a template describes
type SheetType string

const (
	SheetTypeImport SheetType = "IMPORT"
	SheetTypeExport SheetType = "EXPORT"
)

// IsValid checks if the sheet type is valid
func (s SheetType) IsValid() bool {
	return s == SheetTypeImport || s == SheetTypeExport
}

// FormulaVariant selects the row-formula shapes for a layout. The import
// and export workbooks compute their summary cells differently, so the
// variant is configuration, not a single formula string.
type FormulaVariant string

const (
	// FormulaVariantImport: total=SUM(fee range), vnd=total*rate cell,
	// vat=SUM(vat sub-range)*rate cell*rate%, grand=vnd+vat.
	FormulaVariantImport FormulaVariant = "IMPORT"
	// FormulaVariantExport: total=SUM(first+second fee column),
	// vnd=ROUND(SUM(fee range)*rate cell,0), vat=vnd*rate%,
	// grand=SUM(vnd+vat).
	FormulaVariantExport FormulaVariant = "EXPORT"
)

// IsValid checks if the formula variant is valid
func (v FormulaVariant) IsValid() bool {
	return v == FormulaVariantImport || v == FormulaVariantExport
}

var cellRefPattern = regexp.MustCompile(`^\$[A-Z]{1,3}\$[1-9][0-9]*$`)

// Template is the layout descriptor for one client and sheet type.
// All column positions are validated when the template is loaded so
// that layout mistakes surface as configuration errors, not as broken
// workbooks at generation time.
type Template struct {
	shared.BaseEntity
	ClientID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	SheetType        SheetType       `gorm:"type:varchar(20);not null"`
	SheetNamePattern string          `gorm:"type:varchar(100)"` // "{MMYYYY}" is replaced with the billing period
	HeaderEndRow     int             `gorm:"not null;default:15"`
	DataStartRow     int             `gorm:"not null;default:16"`
	FeeColumnStart   string          `gorm:"type:varchar(5);not null"`
	FeeColumnEnd     string          `gorm:"type:varchar(5);not null"`
	VATColumnStart   string          `gorm:"type:varchar(5)"` // first VAT-applicable fee column (import variant)
	TotalUSDColumn   string          `gorm:"type:varchar(5);not null"`
	TotalVNDColumn   string          `gorm:"type:varchar(5);not null"`
	VATColumn        string          `gorm:"type:varchar(5);not null"`
	GrandTotalColumn string          `gorm:"type:varchar(5);not null"`
	ExchangeRateCell string          `gorm:"type:varchar(10);not null"` // absolute reference, e.g. "$BE$13"
	VATRate          decimal.Decimal `gorm:"type:decimal(5,2);not null;default:8"`
	FormulaVariant   FormulaVariant  `gorm:"type:varchar(20);not null"`
	IsActive         bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Template) TableName() string {
	return "client_templates"
}

// DefaultImportTemplate returns the layout of the legacy import workbook:
// fee columns M..AT with the VAT-applicable sub-range starting at Z,
// summary columns BC..BF, exchange rate in the hidden row 13 at BE13.
func DefaultImportTemplate() Template {
	return Template{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             "Default import layout",
		SheetType:        SheetTypeImport,
		HeaderEndRow:     15,
		DataStartRow:     16,
		FeeColumnStart:   "M",
		FeeColumnEnd:     "AT",
		VATColumnStart:   "Z",
		TotalUSDColumn:   "BC",
		TotalVNDColumn:   "BD",
		VATColumn:        "BE",
		GrandTotalColumn: "BF",
		ExchangeRateCell: "$BE$13",
		VATRate:          decimal.NewFromInt(8),
		FormulaVariant:   FormulaVariantImport,
		IsActive:         true,
	}
}

// DefaultExportTemplate returns the layout of the legacy export workbook:
// fee columns M..AH, summary columns AI..AL, exchange rate in D9.
func DefaultExportTemplate() Template {
	return Template{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             "Default export layout",
		SheetType:        SheetTypeExport,
		HeaderEndRow:     15,
		DataStartRow:     16,
		FeeColumnStart:   "M",
		FeeColumnEnd:     "AH",
		TotalUSDColumn:   "AI",
		TotalVNDColumn:   "AJ",
		VATColumn:        "AK",
		GrandTotalColumn: "AL",
		ExchangeRateCell: "$D$9",
		VATRate:          decimal.NewFromInt(8),
		FormulaVariant:   FormulaVariantExport,
		IsActive:         true,
	}
}

// Validate checks the descriptor for internal consistency. A template
// that passes Validate is guaranteed to produce well-formed ranges at
// generation time.
func (t *Template) Validate() error {
	if !t.SheetType.IsValid() {
		return shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("unknown sheet type %q", t.SheetType))
	}
	if !t.FormulaVariant.IsValid() {
		return shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("unknown formula variant %q", t.FormulaVariant))
	}
	if t.HeaderEndRow < 1 || t.DataStartRow <= t.HeaderEndRow {
		return shared.NewDomainError("INVALID_TEMPLATE",
			fmt.Sprintf("data start row %d must be below header end row %d", t.DataStartRow, t.HeaderEndRow))
	}

	feeStart, err := ColumnNumber(t.FeeColumnStart)
	if err != nil {
		return shared.NewDomainError("INVALID_TEMPLATE", "fee column start: "+err.Error())
	}
	feeEnd, err := ColumnNumber(t.FeeColumnEnd)
	if err != nil {
		return shared.NewDomainError("INVALID_TEMPLATE", "fee column end: "+err.Error())
	}
	if feeEnd < feeStart {
		return shared.NewDomainError("INVALID_TEMPLATE",
			fmt.Sprintf("fee column range %s..%s is inverted", t.FeeColumnStart, t.FeeColumnEnd))
	}

	if t.FormulaVariant == FormulaVariantImport {
		vatStart, err := ColumnNumber(t.VATColumnStart)
		if err != nil {
			return shared.NewDomainError("INVALID_TEMPLATE", "vat column start: "+err.Error())
		}
		if vatStart < feeStart || vatStart > feeEnd {
			return shared.NewDomainError("INVALID_TEMPLATE",
				fmt.Sprintf("vat column start %s is outside fee range %s..%s",
					t.VATColumnStart, t.FeeColumnStart, t.FeeColumnEnd))
		}
	}

	summaries := []struct {
		name   string
		letter string
	}{
		{"total usd column", t.TotalUSDColumn},
		{"total vnd column", t.TotalVNDColumn},
		{"vat column", t.VATColumn},
		{"grand total column", t.GrandTotalColumn},
	}
	for _, s := range summaries {
		n, err := ColumnNumber(s.letter)
		if err != nil {
			return shared.NewDomainError("INVALID_TEMPLATE", s.name+": "+err.Error())
		}
		if n <= feeEnd {
			return shared.NewDomainError("INVALID_TEMPLATE",
				fmt.Sprintf("%s %s overlaps the fee range ending at %s", s.name, s.letter, t.FeeColumnEnd))
		}
	}

	if !cellRefPattern.MatchString(t.ExchangeRateCell) {
		return shared.NewDomainError("INVALID_TEMPLATE",
			fmt.Sprintf("exchange rate cell %q is not an absolute reference", t.ExchangeRateCell))
	}
	if t.VATRate.LessThanOrEqual(decimal.Zero) || t.VATRate.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_TEMPLATE", "vat rate must be a percentage between 0 and 100")
	}
	return nil
}

// SheetName resolves the sheet name for a billing period formatted as
// MMYYYY, falling back to "{TYPE} {client code prefix} {period}" when no
// pattern is configured. Names are truncated to the 31-character sheet
// name limit of the xlsx format.
func (t *Template) SheetName(clientCode, period string) string {
	name := t.SheetNamePattern
	if name == "" {
		prefix := clientCode
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		name = fmt.Sprintf("%s %s %s", t.SheetType, prefix, period)
	} else {
		name = strings.ReplaceAll(name, "{MMYYYY}", period)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// FeeMapping pins one fee item to a fixed column for one client's sheet.
// When a client has no mappings, columns are assigned deterministically
// at generation time instead.
type FeeMapping struct {
	shared.BaseEntity
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FeeItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ColumnLetter string    `gorm:"type:varchar(5);not null"`
	SheetType    SheetType `gorm:"type:varchar(20);not null"`
	DisplayName  string    `gorm:"type:varchar(200)"`
	SortOrder    int       `gorm:"not null;default:0"`
	IsActive     bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (FeeMapping) TableName() string {
	return "client_fee_mappings"
}

// ColumnNumber converts a spreadsheet column letter ("A".."XFD") to its
// 1-based index.
func ColumnNumber(letter string) (int, error) {
	if letter == "" {
		return 0, fmt.Errorf("column letter is empty")
	}
	n := 0
	for _, r := range letter {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", letter)
		}
		n = n*26 + int(r-'A'+1)
	}
	if n > 16384 {
		return 0, fmt.Errorf("column letter %q is beyond the sheet limit", letter)
	}
	return n, nil
}

// ColumnLetter converts a 1-based column index to its letter form
func ColumnLetter(n int) string {
	letter := ""
	for n > 0 {
		n--
		letter = string(rune('A'+n%26)) + letter
		n /= 26
	}
	return letter
}
