package excel

import (
	"fmt"
	"testing"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(t *testing.T, code string, vatApplicable bool, sortOrder int) *fee.Item {
	t.Helper()
	item, err := fee.NewItem(uuid.New(), code, code, vatApplicable, false, sortOrder)
	require.NoError(t, err)
	return item
}

func TestAssignColumns(t *testing.T) {
	t.Run("import layout keeps exempt items before the vat sub-range", func(t *testing.T) {
		tpl := client.DefaultImportTemplate()
		freight1 := testItem(t, "OCEAN_FREIGHT", false, 1)
		freight2 := testItem(t, "AIR_FREIGHT", false, 2)
		local1 := testItem(t, "THC", true, 1)
		local2 := testItem(t, "DO_FEE", true, 2)

		cols, err := AssignColumns(tpl, []*fee.Item{local2, freight2, local1, freight1}, nil)
		require.NoError(t, err)
		require.Len(t, cols, 4)

		byID := make(map[uuid.UUID]string)
		for _, c := range cols {
			byID[c.FeeItemID] = c.Letter
		}
		assert.Equal(t, "M", byID[freight1.ID])
		assert.Equal(t, "N", byID[freight2.ID])
		assert.Equal(t, "Z", byID[local1.ID])
		assert.Equal(t, "AA", byID[local2.ID])
	})

	t.Run("export layout packs items sequentially", func(t *testing.T) {
		tpl := client.DefaultExportTemplate()
		freight := testItem(t, "OCEAN_FREIGHT", false, 1)
		local := testItem(t, "THC", true, 1)

		cols, err := AssignColumns(tpl, []*fee.Item{local, freight}, nil)
		require.NoError(t, err)
		require.Len(t, cols, 2)
		assert.Equal(t, "M", cols[0].Letter)
		assert.Equal(t, freight.ID, cols[0].FeeItemID)
		assert.Equal(t, "N", cols[1].Letter)
	})

	t.Run("fixed mappings win over deterministic assignment", func(t *testing.T) {
		tpl := client.DefaultImportTemplate()
		freight := testItem(t, "OCEAN_FREIGHT", false, 1)
		other := testItem(t, "AIR_FREIGHT", false, 2)

		mappings := []client.FeeMapping{{
			FeeItemID:    freight.ID,
			ColumnLetter: "P",
			SheetType:    client.SheetTypeImport,
			DisplayName:  "Sea freight",
			IsActive:     true,
		}}

		cols, err := AssignColumns(tpl, []*fee.Item{freight, other}, mappings)
		require.NoError(t, err)
		require.Len(t, cols, 2)

		byID := make(map[uuid.UUID]FeeColumn)
		for _, c := range cols {
			byID[c.FeeItemID] = c
		}
		assert.Equal(t, "P", byID[freight.ID].Letter)
		assert.Equal(t, "Sea freight", byID[freight.ID].Title)
		assert.Equal(t, "M", byID[other.ID].Letter, "deterministic assignment skips taken columns only when reached")
	})

	t.Run("mapping outside the fee range is rejected", func(t *testing.T) {
		tpl := client.DefaultImportTemplate()
		freight := testItem(t, "OCEAN_FREIGHT", false, 1)

		_, err := AssignColumns(tpl, []*fee.Item{freight}, []client.FeeMapping{{
			FeeItemID:    freight.ID,
			ColumnLetter: "BC",
			SheetType:    client.SheetTypeImport,
			IsActive:     true,
		}})
		assert.Error(t, err)
	})

	t.Run("more items than columns overflows", func(t *testing.T) {
		tpl := client.DefaultImportTemplate()
		// exempt sub-range M..Y holds 13 columns
		items := make([]*fee.Item, 0, 14)
		for i := 0; i < 14; i++ {
			items = append(items, testItem(t, fmt.Sprintf("FEE_%02d", i), false, i))
		}

		_, err := AssignColumns(tpl, items, nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "LAYOUT_OVERFLOW", domainErr.Code)
	})
}

func TestRowFormulas(t *testing.T) {
	t.Run("import variant", func(t *testing.T) {
		tpl := client.DefaultImportTemplate()
		totalUSD, totalVND, vat, grand := RowFormulas(tpl, 16)

		assert.Equal(t, "SUM(M16:AT16)", totalUSD)
		assert.Equal(t, "BC16*$BE$13", totalVND)
		assert.Equal(t, "SUM(Z16:AT16)*$BE$13*8%", vat)
		assert.Equal(t, "BD16+BE16", grand)
	})

	t.Run("export variant", func(t *testing.T) {
		tpl := client.DefaultExportTemplate()
		totalUSD, totalVND, vat, grand := RowFormulas(tpl, 16)

		assert.Equal(t, "SUM(M16+N16)", totalUSD)
		assert.Equal(t, "ROUND(SUM(M16:AH16)*$D$9,0)", totalVND)
		assert.Equal(t, "AJ16*8%", vat)
		assert.Equal(t, "SUM(AJ16+AK16)", grand)
	})
}

func TestColumnTotal(t *testing.T) {
	assert.Equal(t, "SUM(BC16:BC25)", ColumnTotal("BC", 16, 25))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "ACME_DN-202608-00001_082026.xlsx", FileName("ACME", "DN-202608-00001", "082026"))
	assert.Equal(t, "AC_ME_DN-202608-00002_082026.xlsx", FileName("AC ME", "DN-202608-00002", "082026"))
}
