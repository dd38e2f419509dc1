package billing

import (
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineTotals holds the per-shipment amounts computed by the aggregator.
// USD amounts keep two decimal places; VND amounts are whole numbers
// produced by truncation, never rounding.
type LineTotals struct {
	FreightUSD     decimal.Decimal
	LocalUSD       decimal.Decimal
	PayOnBehalfUSD decimal.Decimal
	TotalUSD       decimal.Decimal
	TotalVND       decimal.Decimal
	VATAmount      decimal.Decimal
	GrandTotalVND  decimal.Decimal

	// FeeAmounts maps fee item ID to the pre-tax USD amount used in the
	// computation, for spreadsheet column placement.
	FeeAmounts map[uuid.UUID]decimal.Decimal
}

// FeeAggregator folds a shipment's fee details into billing totals.
//
// Fees fall into three buckets. Freight charges are VAT-exempt.
// Local charges attract VAT at the configured rate. Pay-on-behalf
// amounts pass through untaxed. A fee whose type is unknown or
// missing from the catalog is treated as a local charge, the
// conservative default since local charges attract VAT.
type FeeAggregator struct {
	vatRate decimal.Decimal
}

// NewFeeAggregator creates an aggregator with the given VAT percentage,
// e.g. 8 for 8%
func NewFeeAggregator(vatPercent decimal.Decimal) *FeeAggregator {
	return &FeeAggregator{vatRate: vatPercent.Div(decimal.NewFromInt(100))}
}

// DefaultFeeAggregator uses the standard 8% VAT rate for local charges
func DefaultFeeAggregator() *FeeAggregator {
	return NewFeeAggregator(decimal.NewFromInt(8))
}

// grossDivisor converts a tax-inclusive amount back to its pre-tax base
func (a *FeeAggregator) grossDivisor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(a.vatRate)
}

// Aggregate computes one shipment's line totals at the given USD/VND
// exchange rate. The catalog maps fee item IDs to their definitions;
// details referencing unknown items still contribute, as local charges.
func (a *FeeAggregator) Aggregate(details []shipment.FeeDetail, catalog map[uuid.UUID]*fee.Item, rate decimal.Decimal) (LineTotals, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return LineTotals{}, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}

	totals := LineTotals{
		FreightUSD:     decimal.Zero,
		LocalUSD:       decimal.Zero,
		PayOnBehalfUSD: decimal.Zero,
		FeeAmounts:     make(map[uuid.UUID]decimal.Decimal, len(details)),
	}

	for _, d := range details {
		item := catalog[d.FeeItemID]
		amount := a.preTaxAmount(d, item)

		totals.FeeAmounts[d.FeeItemID] = totals.FeeAmounts[d.FeeItemID].Add(amount)

		switch {
		case item != nil && item.IsPayOnBehalf():
			totals.PayOnBehalfUSD = totals.PayOnBehalfUSD.Add(amount)
		case item != nil && !item.IsVATApplicable:
			totals.FreightUSD = totals.FreightUSD.Add(amount)
		default:
			totals.LocalUSD = totals.LocalUSD.Add(amount)
		}
	}

	totals.TotalUSD = totals.FreightUSD.Add(totals.LocalUSD).Add(totals.PayOnBehalfUSD)
	totals.TotalVND = totals.TotalUSD.Mul(rate).Truncate(0)
	totals.VATAmount = totals.LocalUSD.Mul(rate).Mul(a.vatRate).Truncate(0)
	totals.GrandTotalVND = totals.TotalVND.Add(totals.VATAmount)
	return totals, nil
}

// preTaxAmount degrosses tax-inclusive details. A precomputed pre-tax
// amount on the detail wins; otherwise the gross amount is divided by
// (1 + VAT rate) and kept at two decimal places.
func (a *FeeAggregator) preTaxAmount(d shipment.FeeDetail, item *fee.Item) decimal.Decimal {
	taxInclusive := d.IsTaxInclusive || (item != nil && item.IsTaxInclusive)
	if !taxInclusive {
		return d.AmountUSD
	}
	if d.PreTaxAmount != nil {
		return *d.PreTaxAmount
	}
	return d.AmountUSD.Div(a.grossDivisor()).Round(2)
}
