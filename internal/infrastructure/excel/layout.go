package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
)

// CellKind tags what a Cell carries. Every cell written to a sheet is
// either a literal value or a formula, never an ambiguous string that
// the writer has to guess about.
type CellKind int

const (
	CellLiteral CellKind = iota
	CellFormula
)

// Cell is one tagged cell payload
type Cell struct {
	Kind    CellKind
	Value   interface{} // literal payload, ignored for formulas
	Formula string      // formula body without leading '=', ignored for literals
}

// Literal wraps a value as a literal cell
func Literal(v interface{}) Cell {
	return Cell{Kind: CellLiteral, Value: v}
}

// Formula wraps a formula body as a formula cell
func Formula(body string) Cell {
	return Cell{Kind: CellFormula, Formula: body}
}

// FeeColumn binds one fee item to one sheet column
type FeeColumn struct {
	FeeItemID     uuid.UUID
	Letter        string
	Title         string
	VATApplicable bool
}

// AssignColumns places fee items into the template's fee column range.
// Fixed client mappings win; remaining items are laid out
// deterministically by catalog sort order, with the import variant
// keeping VAT-exempt items before the VAT sub-range and VAT-applicable
// items inside it.
func AssignColumns(tpl client.Template, items []*fee.Item, mappings []client.FeeMapping) ([]FeeColumn, error) {
	feeStart, err := client.ColumnNumber(tpl.FeeColumnStart)
	if err != nil {
		return nil, err
	}
	feeEnd, err := client.ColumnNumber(tpl.FeeColumnEnd)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]bool)
	mapped := make(map[uuid.UUID]bool)
	columns := make([]FeeColumn, 0, len(items))

	itemByID := make(map[uuid.UUID]*fee.Item, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}

	for _, m := range mappings {
		if !m.IsActive || m.SheetType != tpl.SheetType {
			continue
		}
		n, err := client.ColumnNumber(m.ColumnLetter)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_MAPPING", "fee mapping column: "+err.Error())
		}
		if n < feeStart || n > feeEnd {
			return nil, shared.NewDomainError("INVALID_MAPPING",
				fmt.Sprintf("fee mapping column %s is outside range %s..%s",
					m.ColumnLetter, tpl.FeeColumnStart, tpl.FeeColumnEnd))
		}
		if taken[n] {
			return nil, shared.NewDomainError("INVALID_MAPPING",
				fmt.Sprintf("fee mapping column %s is assigned twice", m.ColumnLetter))
		}
		item := itemByID[m.FeeItemID]
		if item == nil {
			continue
		}
		title := m.DisplayName
		if title == "" {
			title = item.Name
		}
		taken[n] = true
		mapped[item.ID] = true
		columns = append(columns, FeeColumn{
			FeeItemID:     item.ID,
			Letter:        m.ColumnLetter,
			Title:         title,
			VATApplicable: item.IsVATApplicable,
		})
	}

	exempt := make([]*fee.Item, 0, len(items))
	taxed := make([]*fee.Item, 0, len(items))
	for _, it := range items {
		if mapped[it.ID] {
			continue
		}
		if it.IsVATApplicable {
			taxed = append(taxed, it)
		} else {
			exempt = append(exempt, it)
		}
	}
	sortItems(exempt)
	sortItems(taxed)

	if tpl.FormulaVariant == client.FormulaVariantImport {
		vatStart, err := client.ColumnNumber(tpl.VATColumnStart)
		if err != nil {
			return nil, err
		}
		cols, err := fill(exempt, feeStart, vatStart-1, taken)
		if err != nil {
			return nil, err
		}
		columns = append(columns, cols...)
		cols, err = fill(taxed, vatStart, feeEnd, taken)
		if err != nil {
			return nil, err
		}
		columns = append(columns, cols...)
	} else {
		all := append(append(make([]*fee.Item, 0, len(exempt)+len(taxed)), exempt...), taxed...)
		cols, err := fill(all, feeStart, feeEnd, taken)
		if err != nil {
			return nil, err
		}
		columns = append(columns, cols...)
	}

	sort.Slice(columns, func(i, j int) bool {
		ni, _ := client.ColumnNumber(columns[i].Letter)
		nj, _ := client.ColumnNumber(columns[j].Letter)
		return ni < nj
	})
	return columns, nil
}

func sortItems(items []*fee.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Code < items[j].Code
	})
}

func fill(items []*fee.Item, from, to int, taken map[int]bool) ([]FeeColumn, error) {
	columns := make([]FeeColumn, 0, len(items))
	next := from
	for _, it := range items {
		for next <= to && taken[next] {
			next++
		}
		if next > to {
			return nil, shared.NewDomainError("LAYOUT_OVERFLOW",
				fmt.Sprintf("no free column for fee item %s in range %s..%s",
					it.Code, client.ColumnLetter(from), client.ColumnLetter(to)))
		}
		taken[next] = true
		columns = append(columns, FeeColumn{
			FeeItemID:     it.ID,
			Letter:        client.ColumnLetter(next),
			Title:         it.Name,
			VATApplicable: it.IsVATApplicable,
		})
		next++
	}
	return columns, nil
}

// RowFormulas returns the four summary cell formulas for one data row.
// The two layout variants compute their summaries differently and the
// shapes below reproduce the legacy workbooks exactly.
func RowFormulas(tpl client.Template, row int) (totalUSD, totalVND, vat, grand string) {
	rate := tpl.ExchangeRateCell
	pct := tpl.VATRate.String() + "%"

	if tpl.FormulaVariant == client.FormulaVariantImport {
		totalUSD = fmt.Sprintf("SUM(%s%d:%s%d)", tpl.FeeColumnStart, row, tpl.FeeColumnEnd, row)
		totalVND = fmt.Sprintf("%s%d*%s", tpl.TotalUSDColumn, row, rate)
		vat = fmt.Sprintf("SUM(%s%d:%s%d)*%s*%s", tpl.VATColumnStart, row, tpl.FeeColumnEnd, row, rate, pct)
		grand = fmt.Sprintf("%s%d+%s%d", tpl.TotalVNDColumn, row, tpl.VATColumn, row)
		return
	}

	feeStartN, _ := client.ColumnNumber(tpl.FeeColumnStart)
	second := client.ColumnLetter(feeStartN + 1)
	totalUSD = fmt.Sprintf("SUM(%s%d+%s%d)", tpl.FeeColumnStart, row, second, row)
	totalVND = fmt.Sprintf("ROUND(SUM(%s%d:%s%d)*%s,0)", tpl.FeeColumnStart, row, tpl.FeeColumnEnd, row, rate)
	vat = fmt.Sprintf("%s%d*%s", tpl.TotalVNDColumn, row, pct)
	grand = fmt.Sprintf("SUM(%s%d+%s%d)", tpl.TotalVNDColumn, row, tpl.VATColumn, row)
	return
}

// ColumnTotal returns the totals row SUM formula for one column
func ColumnTotal(letter string, firstRow, lastRow int) string {
	return fmt.Sprintf("SUM(%s%d:%s%d)", letter, firstRow, letter, lastRow)
}

// FileName builds the download filename for an export. Spaces are
// replaced so the name survives content-disposition headers and shell
// handling.
func FileName(clientCode, number, period string) string {
	name := fmt.Sprintf("%s_%s_%s.xlsx", clientCode, number, period)
	return strings.ReplaceAll(name, " ", "_")
}
