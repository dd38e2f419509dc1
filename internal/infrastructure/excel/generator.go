package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// RowInput is one shipment with its pre-tax USD amounts keyed by fee
// item
type RowInput struct {
	Shipment *shipment.Shipment
	Fees     map[uuid.UUID]decimal.Decimal
}

// SheetInput is everything needed to render one sheet
type SheetInput struct {
	Template   client.Template
	SheetName  string
	Columns    []FeeColumn
	Rows       []RowInput
	Duplicates shipment.IdentifierCounts
}

// WorkbookInput is everything needed to render one workbook
type WorkbookInput struct {
	CompanyName   string
	CompanyTaxID  string
	ClientCode    string
	ClientName    string
	ClientAddress string
	Number        string
	BillingDate   time.Time
	Period        string // MMYYYY
	ExchangeRate  decimal.Decimal
	Sheets        []SheetInput
}

// Generator renders debit note workbooks in the legacy layout
type Generator struct{}

// NewGenerator creates a workbook generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the workbook. Templates must already be validated;
// a template that fails validation here is a configuration error.
func (g *Generator) Generate(input WorkbookInput) (*excelize.File, error) {
	if len(input.Sheets) == 0 {
		return nil, shared.NewDomainError("NO_SHEETS", "Workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	for i, sheet := range input.Sheets {
		if err := sheet.Template.Validate(); err != nil {
			return nil, err
		}
		name := sheet.SheetName
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}
		if err := g.renderSheet(f, name, input, sheet, styles); err != nil {
			return nil, fmt.Errorf("render sheet %s: %w", name, err)
		}
	}
	return f, nil
}

func (g *Generator) renderSheet(f *excelize.File, name string, wb WorkbookInput, sheet SheetInput, styles *styleSet) error {
	tpl := sheet.Template

	if err := g.setColumnWidths(f, name, tpl, sheet.Columns); err != nil {
		return err
	}
	if err := g.renderHeaderBlock(f, name, wb, tpl, styles); err != nil {
		return err
	}
	if err := g.renderColumnHeaders(f, name, tpl, sheet.Columns, styles); err != nil {
		return err
	}

	usedCols, lastRow, err := g.renderDataRows(f, name, sheet, styles)
	if err != nil {
		return err
	}
	if err := g.renderTotalsRow(f, name, tpl, sheet.Columns, usedCols, lastRow, styles); err != nil {
		return err
	}
	if err := g.hideUnusedFeeColumns(f, name, tpl, usedCols); err != nil {
		return err
	}

	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      tpl.DataStartRow - 1,
		TopLeftCell: fmt.Sprintf("A%d", tpl.DataStartRow),
		ActivePane:  "bottomLeft",
	})
}

var baseWidths = []struct {
	col   string
	width float64
}{
	{"A", 5}, {"B", 12}, {"C", 18}, {"D", 16}, {"E", 16},
	{"F", 7}, {"G", 8}, {"H", 10}, {"I", 10},
	{"J", 14}, {"K", 8}, {"L", 10},
}

func (g *Generator) setColumnWidths(f *excelize.File, name string, tpl client.Template, columns []FeeColumn) error {
	for _, w := range baseWidths {
		if err := f.SetColWidth(name, w.col, w.col, w.width); err != nil {
			return err
		}
	}
	feeStart, _ := client.ColumnNumber(tpl.FeeColumnStart)
	feeEnd, _ := client.ColumnNumber(tpl.FeeColumnEnd)
	for n := feeStart; n <= feeEnd; n++ {
		letter := client.ColumnLetter(n)
		if err := f.SetColWidth(name, letter, letter, 12); err != nil {
			return err
		}
	}
	for _, letter := range []string{tpl.TotalUSDColumn, tpl.TotalVNDColumn, tpl.VATColumn, tpl.GrandTotalColumn} {
		if err := f.SetColWidth(name, letter, letter, 14); err != nil {
			return err
		}
	}
	return nil
}

// renderHeaderBlock writes the company banner, the addressee block and
// the exchange rate. The rate always lives at the template's rate cell;
// when that cell sits outside the visible info block its row is hidden,
// matching the legacy import workbook's hidden rate row.
func (g *Generator) renderHeaderBlock(f *excelize.File, name string, wb WorkbookInput, tpl client.Template, styles *styleSet) error {
	set := func(ref string, c Cell, style int) error {
		return g.writeCell(f, name, ref, c, style)
	}

	if err := set("A1", Literal(wb.CompanyName), styles.company); err != nil {
		return err
	}
	if err := set("A2", Literal("Tax code: "+wb.CompanyTaxID), styles.info); err != nil {
		return err
	}

	subject := "Debit Note " + formatSubjectPeriod(wb.Period)
	infoRows := []struct {
		row   int
		label string
		value Cell
		style int
	}{
		{5, "TO", Literal(wb.ClientName), styles.info},
		{6, "ADD", Literal(wb.ClientAddress), styles.info},
		{7, "SUBJECT", Literal(subject), styles.info},
		{8, "DATE", Literal(wb.BillingDate.Format("02/01/2006")), styles.info},
		{9, "Exchange rate", Literal(wb.ExchangeRate.InexactFloat64()), styles.rate},
	}
	for _, r := range infoRows {
		if err := set(fmt.Sprintf("C%d", r.row), Literal(r.label), styles.label); err != nil {
			return err
		}
		if err := set(fmt.Sprintf("D%d", r.row), r.value, r.style); err != nil {
			return err
		}
	}

	rateCol, rateRow, err := parseCellRef(tpl.ExchangeRateCell)
	if err != nil {
		return err
	}
	if rateCol != "D" || rateRow != 9 {
		labelN, _ := client.ColumnNumber(rateCol)
		labelCol := client.ColumnLetter(labelN - 1)
		if err := set(fmt.Sprintf("%s%d", labelCol, rateRow), Literal("Tỷ giá"), styles.label); err != nil {
			return err
		}
		if err := set(fmt.Sprintf("%s%d", rateCol, rateRow), Literal(wb.ExchangeRate.InexactFloat64()), styles.rate); err != nil {
			return err
		}
		if err := f.SetRowVisible(name, rateRow, false); err != nil {
			return err
		}
	}

	titleRow := 12
	titleRange := fmt.Sprintf("A%d", titleRow)
	titleEnd := fmt.Sprintf("%s%d", tpl.GrandTotalColumn, titleRow)
	if err := f.MergeCell(name, titleRange, titleEnd); err != nil {
		return err
	}
	if err := set(titleRange, Literal("DEBIT NOTE"), styles.title); err != nil {
		return err
	}
	return f.SetCellStyle(name, titleRange, titleEnd, styles.title)
}

func (g *Generator) renderColumnHeaders(f *excelize.File, name string, tpl client.Template, columns []FeeColumn, styles *styleSet) error {
	top := tpl.HeaderEndRow - 1
	bottom := tpl.HeaderEndRow

	headers := map[string]string{
		"A": "No.",
		"B": "Delivery date",
		"C": "Invoice No.",
		"D": "MBL",
		"E": "HBL",
		"F": "Term",
		"G": "Pkgs",
		"H": "G.W (kgs)",
		"I": "C.W (kgs)",
		"L": "Rate",
	}
	if tpl.FormulaVariant == client.FormulaVariantImport {
		headers["J"] = "CD No."
		headers["K"] = "CD type"
	} else {
		headers["J"] = "Origin/ Destination"
		headers["K"] = "CD No."
	}
	for _, c := range columns {
		headers[c.Letter] = c.Title
	}
	headers[tpl.TotalUSDColumn] = "TOTAL (USD)"
	headers[tpl.TotalVNDColumn] = "TOTAL (VND)"
	headers[tpl.VATColumn] = "VAT"
	headers[tpl.GrandTotalColumn] = "GRAND TOTAL (VND)"
	if tpl.FormulaVariant == client.FormulaVariantImport {
		grandN, _ := client.ColumnNumber(tpl.GrandTotalColumn)
		headers[client.ColumnLetter(grandN+1)] = "Back to back Inv. No."
	}

	// Write headers left to right so repeated generations produce
	// byte-identical sheet XML
	letters := make([]string, 0, len(headers))
	for letter := range headers {
		letters = append(letters, letter)
	}
	sort.Slice(letters, func(i, j int) bool {
		a, _ := client.ColumnNumber(letters[i])
		b, _ := client.ColumnNumber(letters[j])
		return a < b
	})

	for _, letter := range letters {
		topRef := fmt.Sprintf("%s%d", letter, top)
		bottomRef := fmt.Sprintf("%s%d", letter, bottom)
		if err := f.MergeCell(name, topRef, bottomRef); err != nil {
			return err
		}
		if err := g.writeCell(f, name, topRef, Literal(headers[letter]), styles.header); err != nil {
			return err
		}
	}

	grandN, _ := client.ColumnNumber(tpl.GrandTotalColumn)
	lastHeaderCol := tpl.GrandTotalColumn
	if tpl.FormulaVariant == client.FormulaVariantImport {
		lastHeaderCol = client.ColumnLetter(grandN + 1)
	}
	return f.SetCellStyle(name,
		fmt.Sprintf("A%d", top),
		fmt.Sprintf("%s%d", lastHeaderCol, bottom),
		styles.header)
}

func (g *Generator) renderDataRows(f *excelize.File, name string, sheet SheetInput, styles *styleSet) (map[string]bool, int, error) {
	tpl := sheet.Template
	usedCols := make(map[string]bool)

	cdCol := "J"
	if tpl.FormulaVariant == client.FormulaVariantExport {
		cdCol = "K"
	}

	row := tpl.DataStartRow
	for i, r := range sheet.Rows {
		s := r.Shipment

		textStyle := func(field shipment.IdentifierField, value string) int {
			if sheet.Duplicates.IsDuplicated(field, value) {
				return styles.textDup
			}
			return styles.text
		}

		cells := []struct {
			col   string
			cell  Cell
			style int
		}{
			{"A", Literal(i + 1), styles.text},
			{"B", Literal(formatDate(s.DeliveryDate)), styles.text},
			{"C", Literal(s.InvoiceNo), textStyle(shipment.FieldInvoiceNo, s.InvoiceNo)},
			{"D", Literal(s.MBL), textStyle(shipment.FieldMBL, s.MBL)},
			{"E", Literal(s.HBL), textStyle(shipment.FieldHBL, s.HBL)},
			{"F", Literal(s.Term), styles.text},
			{"G", Literal(s.NoOfPkgs), styles.text},
			{"H", Literal(s.GrossWeight.InexactFloat64()), styles.usd},
			{"I", Literal(s.ChargeableWeight.InexactFloat64()), styles.usd},
			{cdCol, Literal(s.CDNo), textStyle(shipment.FieldCDNo, s.CDNo)},
			{"L", Literal(s.AirOceanRate), styles.text},
		}
		if tpl.FormulaVariant == client.FormulaVariantImport {
			cells = append(cells, struct {
				col   string
				cell  Cell
				style int
			}{"K", Literal(s.CDType), styles.text})
			grandN, _ := client.ColumnNumber(tpl.GrandTotalColumn)
			cells = append(cells, struct {
				col   string
				cell  Cell
				style int
			}{client.ColumnLetter(grandN + 1), Literal(s.BackToBackInvoiceNo), styles.text})
		} else {
			cells = append(cells, struct {
				col   string
				cell  Cell
				style int
			}{"J", Literal(s.OriginDestination), styles.text})
		}
		for _, c := range cells {
			if err := g.writeCell(f, name, fmt.Sprintf("%s%d", c.col, row), c.cell, c.style); err != nil {
				return nil, 0, err
			}
		}

		for _, col := range sheet.Columns {
			amount, ok := r.Fees[col.FeeItemID]
			ref := fmt.Sprintf("%s%d", col.Letter, row)
			if !ok || amount.IsZero() {
				if err := f.SetCellStyle(name, ref, ref, styles.usd); err != nil {
					return nil, 0, err
				}
				continue
			}
			usedCols[col.Letter] = true
			if err := g.writeCell(f, name, ref, Literal(amount.InexactFloat64()), styles.usd); err != nil {
				return nil, 0, err
			}
		}

		totalUSD, totalVND, vat, grand := RowFormulas(tpl, row)
		summaries := []struct {
			col     string
			formula string
			style   int
		}{
			{tpl.TotalUSDColumn, totalUSD, styles.usd},
			{tpl.TotalVNDColumn, totalVND, styles.vnd},
			{tpl.VATColumn, vat, styles.vnd},
			{tpl.GrandTotalColumn, grand, styles.vnd},
		}
		for _, c := range summaries {
			if err := g.writeCell(f, name, fmt.Sprintf("%s%d", c.col, row), Formula(c.formula), c.style); err != nil {
				return nil, 0, err
			}
		}
		row++
	}
	return usedCols, row - 1, nil
}

func (g *Generator) renderTotalsRow(f *excelize.File, name string, tpl client.Template, columns []FeeColumn, usedCols map[string]bool, lastDataRow int, styles *styleSet) error {
	totalsRow := lastDataRow + 1
	firstRow := tpl.DataStartRow

	if err := g.writeCell(f, name, fmt.Sprintf("A%d", totalsRow), Literal("TOTAL"), styles.totalLabel); err != nil {
		return err
	}
	for _, col := range columns {
		if !usedCols[col.Letter] {
			continue
		}
		ref := fmt.Sprintf("%s%d", col.Letter, totalsRow)
		if err := g.writeCell(f, name, ref, Formula(ColumnTotal(col.Letter, firstRow, lastDataRow)), styles.totalUSD); err != nil {
			return err
		}
	}
	summaries := []struct {
		col   string
		style int
	}{
		{tpl.TotalUSDColumn, styles.totalUSD},
		{tpl.TotalVNDColumn, styles.totalVND},
		{tpl.VATColumn, styles.totalVND},
		{tpl.GrandTotalColumn, styles.totalVND},
	}
	for _, c := range summaries {
		ref := fmt.Sprintf("%s%d", c.col, totalsRow)
		if err := g.writeCell(f, name, ref, Formula(ColumnTotal(c.col, firstRow, lastDataRow)), c.style); err != nil {
			return err
		}
	}
	return nil
}

// hideUnusedFeeColumns hides fee columns no shipment charged into.
// Summary columns stay visible even when empty.
func (g *Generator) hideUnusedFeeColumns(f *excelize.File, name string, tpl client.Template, usedCols map[string]bool) error {
	feeStart, _ := client.ColumnNumber(tpl.FeeColumnStart)
	feeEnd, _ := client.ColumnNumber(tpl.FeeColumnEnd)
	for n := feeStart; n <= feeEnd; n++ {
		letter := client.ColumnLetter(n)
		if usedCols[letter] {
			continue
		}
		if err := f.SetColVisible(name, letter, false); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeCell(f *excelize.File, sheet, ref string, c Cell, style int) error {
	switch c.Kind {
	case CellFormula:
		if err := f.SetCellFormula(sheet, ref, c.Formula); err != nil {
			return err
		}
	default:
		if err := f.SetCellValue(sheet, ref, c.Value); err != nil {
			return err
		}
	}
	if style == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, ref, ref, style)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// formatSubjectPeriod turns MMYYYY into MM/YYYY for the subject line
func formatSubjectPeriod(period string) string {
	if len(period) != 6 {
		return period
	}
	return period[:2] + "/" + period[2:]
}

// parseCellRef splits an absolute reference like $BE$13 into column
// letters and row number
func parseCellRef(ref string) (string, int, error) {
	clean := strings.ReplaceAll(ref, "$", "")
	i := 0
	for i < len(clean) && clean[i] >= 'A' && clean[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(clean) {
		return "", 0, shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("malformed cell reference %q", ref))
	}
	row, err := strconv.Atoi(clean[i:])
	if err != nil || row < 1 {
		return "", 0, shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("malformed cell reference %q", ref))
	}
	return clean[:i], row, nil
}
