package billing

import (
	"testing"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, code string, vatApplicable, taxInclusive bool) *fee.Item {
	t.Helper()
	item, err := fee.NewItem(uuid.New(), code, code, vatApplicable, taxInclusive, 0)
	require.NoError(t, err)
	return item
}

func detailFor(item *fee.Item, amount string) shipment.FeeDetail {
	return shipment.FeeDetail{
		FeeItemID: item.ID,
		AmountUSD: decimal.RequireFromString(amount),
	}
}

func TestFeeAggregator_Aggregate(t *testing.T) {
	agg := DefaultFeeAggregator()
	rate := decimal.NewFromInt(26446)

	freight := mustItem(t, "OCEAN_FREIGHT", false, false)
	local := mustItem(t, "THC", true, false)
	pob := mustItem(t, fee.ItemCodePayOnBehalf, false, false)

	catalog := map[uuid.UUID]*fee.Item{
		freight.ID: freight,
		local.ID:   local,
		pob.ID:     pob,
	}

	t.Run("freight plus local charges at rate 26446", func(t *testing.T) {
		details := []shipment.FeeDetail{
			detailFor(freight, "500"),
			detailFor(local, "200"),
		}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.FreightUSD.Equal(decimal.NewFromInt(500)))
		assert.True(t, totals.LocalUSD.Equal(decimal.NewFromInt(200)))
		assert.True(t, totals.TotalUSD.Equal(decimal.NewFromInt(700)))
		assert.True(t, totals.TotalVND.Equal(decimal.NewFromInt(18512200)), "got %s", totals.TotalVND)
		assert.True(t, totals.VATAmount.Equal(decimal.NewFromInt(423136)), "got %s", totals.VATAmount)
		assert.True(t, totals.GrandTotalVND.Equal(decimal.NewFromInt(18935336)), "got %s", totals.GrandTotalVND)
	})

	t.Run("fractional amounts truncate toward zero", func(t *testing.T) {
		details := []shipment.FeeDetail{detailFor(freight, "0.07")}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		// 0.07 * 26446 = 1851.22, truncated to 1851
		assert.True(t, totals.TotalVND.Equal(decimal.NewFromInt(1851)), "got %s", totals.TotalVND)
	})

	t.Run("pay on behalf passes through untaxed", func(t *testing.T) {
		details := []shipment.FeeDetail{
			detailFor(pob, "150"),
			detailFor(local, "100"),
		}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.PayOnBehalfUSD.Equal(decimal.NewFromInt(150)))
		assert.True(t, totals.TotalUSD.Equal(decimal.NewFromInt(250)))
		// VAT base is local charges only
		expectedVAT := decimal.NewFromInt(100).Mul(rate).Mul(decimal.RequireFromString("0.08")).Truncate(0)
		assert.True(t, totals.VATAmount.Equal(expectedVAT), "got %s", totals.VATAmount)
	})

	t.Run("unknown fee type defaults to local charges", func(t *testing.T) {
		unknown := shipment.FeeDetail{FeeItemID: uuid.New(), AmountUSD: decimal.NewFromInt(50)}

		totals, err := agg.Aggregate([]shipment.FeeDetail{unknown}, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.LocalUSD.Equal(decimal.NewFromInt(50)))
		assert.True(t, totals.FreightUSD.IsZero())
		assert.False(t, totals.VATAmount.IsZero(), "unknown fee types attract VAT as local charges")
	})

	t.Run("tax inclusive detail uses precomputed pre-tax amount", func(t *testing.T) {
		pre := decimal.RequireFromString("92.59")
		details := []shipment.FeeDetail{{
			FeeItemID:      local.ID,
			AmountUSD:      decimal.NewFromInt(100),
			IsTaxInclusive: true,
			PreTaxAmount:   &pre,
		}}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.LocalUSD.Equal(pre))
	})

	t.Run("tax inclusive detail without pre-tax is degrossed", func(t *testing.T) {
		details := []shipment.FeeDetail{{
			FeeItemID:      local.ID,
			AmountUSD:      decimal.NewFromInt(108),
			IsTaxInclusive: true,
		}}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.LocalUSD.Equal(decimal.NewFromInt(100)), "got %s", totals.LocalUSD)
	})

	t.Run("repeated fee items accumulate in FeeAmounts", func(t *testing.T) {
		details := []shipment.FeeDetail{
			detailFor(freight, "300"),
			detailFor(freight, "200"),
		}

		totals, err := agg.Aggregate(details, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.FeeAmounts[freight.ID].Equal(decimal.NewFromInt(500)))
	})

	t.Run("empty details produce zero totals", func(t *testing.T) {
		totals, err := agg.Aggregate(nil, catalog, rate)
		require.NoError(t, err)

		assert.True(t, totals.TotalUSD.IsZero())
		assert.True(t, totals.GrandTotalVND.IsZero())
	})

	t.Run("non-positive rate is rejected", func(t *testing.T) {
		_, err := agg.Aggregate(nil, catalog, decimal.Zero)
		assert.Error(t, err)

		_, err = agg.Aggregate(nil, catalog, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}
