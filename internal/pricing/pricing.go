// Package pricing implements the price-derivation and settlement math for
// order and budget line items: cost roll-up, factor-based margin inversion,
// agency-fee (BV) grossing and the price-to-factor back-solve.
//
// Every function here is a pure, total function over the item state. Degenerate
// inputs (factor >= 2, fee >= 100%) resolve through a documented multiplicative
// fallback rather than an error; historical stored prices were produced by that
// fallback and must keep reproducing.
package pricing

import "errors"

// ErrNonPositivePrice rejects manual price overrides of zero or less.
var ErrNonPositivePrice = errors.New("pricing: sale price must be greater than zero")

// EstimatedCostTotal is the calculation cost of an item: quantity times unit
// price plus the five flat cost categories, all estimated values.
func EstimatedCostTotal(it LineItem) float64 {
	product := float64(it.Quantity) * it.UnitPrice
	return product + it.CustomizationCost + it.LayoutCost +
		it.SupplierTransport + it.ClientTransport + it.ExtraExpense
}

// SalePrice derives the estimated sale total of an item.
//
// baseSale = cost / (2 - factor), falling back to cost * 2 when the divisor is
// not positive. A positive agency fee then grosses the price up by dividing by
// (1 - fee/100), with the same fallback policy. This is the only place factor
// and fee are applied.
func SalePrice(it LineItem) float64 {
	cost := EstimatedCostTotal(it)

	divisor := 2 - it.Factor
	baseSale := cost * 2
	if divisor > 0 {
		baseSale = cost / divisor
	}

	if it.AgencyFeePercent > 0 {
		feeDivisor := 1 - it.AgencyFeePercent/100
		if feeDivisor > 0 {
			return baseSale / feeDivisor
		}
	}
	return baseSale
}

// UnitSalePrice is the sale total divided across the quantity.
func UnitSalePrice(it LineItem) float64 {
	if it.Quantity <= 0 {
		return SalePrice(it)
	}
	return SalePrice(it) / float64(it.Quantity)
}

// RealCostTotal is the actually-incurred cost of an item. Each cost field uses
// its real value when one has been recorded and falls back to the estimate
// field by field. On top of that, the agency fee and tax percentages of the
// sale price are added: both are cash outflows that never appear in the
// estimated cost.
func RealCostTotal(it LineItem) float64 {
	product := float64(it.Quantity) * it.EffectiveValue(FieldUnitPrice)
	costs := product +
		it.EffectiveValue(FieldCustomization) +
		it.EffectiveValue(FieldLayout) +
		it.EffectiveValue(FieldSupplierTransport) +
		it.EffectiveValue(FieldClientTransport) +
		it.EffectiveValue(FieldExtraExpense)

	sale := SalePrice(it)
	feeCost := sale * (it.AgencyFeePercent / 100)
	taxCost := sale * (it.TaxPercent / 100)

	return costs + feeCost + taxCost
}

// BackSolveFactor computes the factor that makes SalePrice return newTotal for
// the item's current costs and agency fee:
//
//	factor = 2 - cost / (newTotal * (1 - fee/100))
//
// The result is stored without clamping. An out-of-range result (>= 2, or
// negative) simply re-triggers SalePrice's fallback on the next read; the
// forward formula tolerating whatever the inverse produces is deliberate.
func BackSolveFactor(it LineItem, newTotal float64) (float64, error) {
	if newTotal <= 0 {
		return 0, ErrNonPositivePrice
	}
	cost := EstimatedCostTotal(it)
	bvFactor := 1 - it.AgencyFeePercent/100
	if bvFactor <= 0 {
		// SalePrice skips fee grossing for a fee of 100% or more, so the
		// inverse solves against the base sale directly.
		bvFactor = 1
	}
	return 2 - cost/(newTotal*bvFactor), nil
}
