package excel

import (
	"github.com/xuri/excelize/v2"
)

const (
	headerFillColor    = "DCE6F1"
	duplicateFillColor = "FFFF00"

	usdFormat = "#,##0.00"
	vndFormat = "#,##0"
)

// styleSet holds the style IDs used by one workbook. Styles are
// registered once per file and reused across sheets.
type styleSet struct {
	company    int
	title      int
	label      int
	info       int
	rate       int
	header     int
	text       int
	textDup    int
	usd        int
	vnd        int
	totalLabel int
	totalUSD   int
	totalVND   int
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, len(sides))
	for i, s := range sides {
		borders[i] = excelize.Border{Type: s, Color: "000000", Style: 1}
	}
	return borders
}

func fillOf(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	usdFmt := usdFormat
	vndFmt := vndFormat

	s := &styleSet{}
	var err error

	if s.company, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: "Arial", Size: 12, Bold: true},
	}); err != nil {
		return nil, err
	}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Size: 14, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: "Arial", Size: 10, Bold: true},
	}); err != nil {
		return nil, err
	}
	if s.info, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: "Arial", Size: 10},
	}); err != nil {
		return nil, err
	}
	if s.rate, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 10, Bold: true, Color: "FF0000"},
		CustomNumFmt: &vndFmt,
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Size: 10, Bold: true},
		Fill:      fillOf(headerFillColor),
		Border:    thinBorders(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return nil, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 9},
		Border: thinBorders(),
	}); err != nil {
		return nil, err
	}
	if s.textDup, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 9},
		Fill:   fillOf(duplicateFillColor),
		Border: thinBorders(),
	}); err != nil {
		return nil, err
	}
	if s.usd, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 9},
		Border:       thinBorders(),
		CustomNumFmt: &usdFmt,
	}); err != nil {
		return nil, err
	}
	if s.vnd, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 9},
		Border:       thinBorders(),
		CustomNumFmt: &vndFmt,
	}); err != nil {
		return nil, err
	}
	if s.totalLabel, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 10, Bold: true},
		Fill:   fillOf(headerFillColor),
		Border: thinBorders(),
	}); err != nil {
		return nil, err
	}
	if s.totalUSD, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 10, Bold: true},
		Fill:         fillOf(headerFillColor),
		Border:       thinBorders(),
		CustomNumFmt: &usdFmt,
	}); err != nil {
		return nil, err
	}
	if s.totalVND, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 10, Bold: true},
		Fill:         fillOf(headerFillColor),
		Border:       thinBorders(),
		CustomNumFmt: &vndFmt,
	}); err != nil {
		return nil, err
	}
	return s, nil
}
