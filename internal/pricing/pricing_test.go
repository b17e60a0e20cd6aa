package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func baseItem() LineItem {
	it := NewLineItem()
	it.Quantity = 10
	it.UnitPrice = 5.00
	it.Factor = 1.35
	return it
}

func TestEstimatedCostTotal(t *testing.T) {
	it := baseItem()
	require.Equal(t, 50.0, EstimatedCostTotal(it))

	it.CustomizationCost = 10
	it.LayoutCost = 5
	it.SupplierTransport = 2.5
	it.ClientTransport = 2.5
	it.ExtraExpense = 1
	require.Equal(t, 71.0, EstimatedCostTotal(it))
}

func TestSalePriceFactorOnly(t *testing.T) {
	// quantity=10, unitPrice=5.00, factor=1.35 -> cost 50, divisor 0.65.
	it := baseItem()
	require.InDelta(t, 76.923076, SalePrice(it), 1e-5)
	require.InDelta(t, 7.6923076, UnitSalePrice(it), 1e-5)
}

func TestSalePriceWithAgencyFee(t *testing.T) {
	// Same item with BV 20%: baseSale / 0.8.
	it := baseItem()
	it.AgencyFeePercent = 20
	require.InDelta(t, 96.153846, SalePrice(it), 1e-5)
}

func TestSalePriceDegenerateFactor(t *testing.T) {
	it := baseItem()
	it.Factor = 2
	require.Equal(t, 2*EstimatedCostTotal(it), SalePrice(it))

	it.Factor = 3.7
	require.Equal(t, 2*EstimatedCostTotal(it), SalePrice(it))
}

func TestSalePriceDegenerateFee(t *testing.T) {
	it := baseItem()
	it.AgencyFeePercent = 100
	// Fee grossing is skipped, never a division by zero.
	require.InDelta(t, 76.923076, SalePrice(it), 1e-5)

	it.AgencyFeePercent = 120
	require.InDelta(t, 76.923076, SalePrice(it), 1e-5)
}

func TestSalePriceNeverNaN(t *testing.T) {
	items := []LineItem{
		{},
		{Quantity: 1, Factor: 2},
		{Quantity: 3, UnitPrice: 9.9, Factor: -4, AgencyFeePercent: 150},
		{Quantity: 10, UnitPrice: 5, Factor: 1.35, AgencyFeePercent: 100},
	}
	for _, it := range items {
		sale := SalePrice(it)
		require.False(t, math.IsNaN(sale))
		require.False(t, math.IsInf(sale, 0))
	}
}

func TestRealCostFieldByFieldFallback(t *testing.T) {
	it := baseItem()
	it.CustomizationCost = 10
	it.LayoutCost = 5
	it.RealCustomizationCost = float(12)

	// Real customization overrides; every other field keeps its estimate.
	require.Equal(t, 50.0+12+5, RealCostTotal(it))
}

func TestRealCostExplicitZeroOverride(t *testing.T) {
	it := baseItem()
	it.CustomizationCost = 10
	it.RealCustomizationCost = float(0)

	// An explicitly recorded real value of zero is honored, not treated as unset.
	require.Equal(t, 50.0, RealCostTotal(it))
}

func TestRealCostAddsFeeAndTaxSurcharges(t *testing.T) {
	it := baseItem()
	it.AgencyFeePercent = 20
	it.TaxPercent = 10

	sale := SalePrice(it)
	want := 50.0 + sale*0.2 + sale*0.1
	require.InDelta(t, want, RealCostTotal(it), 1e-9)
}

func TestBackSolveFactorRejectsNonPositiveTotal(t *testing.T) {
	it := baseItem()
	_, err := BackSolveFactor(it, 0)
	require.ErrorIs(t, err, ErrNonPositivePrice)
	_, err = BackSolveFactor(it, -10)
	require.ErrorIs(t, err, ErrNonPositivePrice)
}

func TestForwardInverseConsistency(t *testing.T) {
	cases := []struct {
		name     string
		fee      float64
		newTotal float64
	}{
		{"no fee", 0, 120},
		{"with fee", 20, 120},
		{"price below cost yields negative factor", 0, 30},
		{"price far below cost", 0, 10},
		{"fee at fallback threshold", 100, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := baseItem()
			it.AgencyFeePercent = tc.fee

			factor, err := BackSolveFactor(it, tc.newTotal)
			require.NoError(t, err)

			it.Factor = factor
			require.InDelta(t, tc.newTotal, SalePrice(it), 1e-6)
		})
	}
}

func TestBackSolveFactorZeroCostItem(t *testing.T) {
	// A zero-cost item back-solves to exactly factor 2; reading the price back
	// takes the degenerate fallback and yields 0 rather than an error. The
	// forward formula tolerating what the inverse produces is intentional.
	it := NewLineItem()
	it.Quantity = 10

	factor, err := BackSolveFactor(it, 100)
	require.NoError(t, err)
	require.Equal(t, 2.0, factor)

	it.Factor = factor
	require.Equal(t, 0.0, SalePrice(it))
}

func TestNewLineItemDefaults(t *testing.T) {
	it := NewLineItem()
	require.Equal(t, 1, it.Quantity)
	require.Equal(t, DefaultFactor, it.Factor)
	require.False(t, it.IsApproved)
	for _, f := range CostFields {
		require.Nil(t, it.RealValue(f))
		require.False(t, it.Paid(f))
	}
}

func TestFieldAmountMultipliesUnitPriceByQuantity(t *testing.T) {
	it := baseItem()
	require.Equal(t, 50.0, it.FieldAmount(FieldUnitPrice))

	it.RealUnitPrice = float(4.5)
	require.Equal(t, 45.0, it.FieldAmount(FieldUnitPrice))

	it.ExtraExpense = 7
	require.Equal(t, 7.0, it.FieldAmount(FieldExtraExpense))
}

func TestCostFieldValid(t *testing.T) {
	for _, f := range CostFields {
		require.True(t, f.Valid())
	}
	require.False(t, CostField("margin").Valid())
}
