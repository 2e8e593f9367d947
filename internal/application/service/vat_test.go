package service

import (
	"testing"

	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/pkg/apperror"
	"github.com/gastrokasse/fiskal-api/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateForCategory(t *testing.T) {
	tests := []struct {
		category enum.ProductCategory
		rate     float64
	}{
		{enum.CategoryFood, VATRateReduced},
		{enum.CategoryBeverage, VATRateStandard},
		{enum.CategoryOther, VATRateStandard},
	}

	for _, tt := range tests {
		rate, err := RateForCategory(tt.category)
		require.NoError(t, err)
		assert.Equal(t, tt.rate, rate, "category %s", tt.category)
	}
}

func TestRateForCategoryUnknown(t *testing.T) {
	_, err := RateForCategory(enum.ProductCategory("dessert"))
	assert.ErrorIs(t, err, apperror.ErrInvalidCategory)
}

func TestCalculateVAT(t *testing.T) {
	breakdown, err := CalculateVAT(11.90, enum.CategoryFood)
	require.NoError(t, err)

	assert.Equal(t, 11.12, breakdown.Net)
	assert.Equal(t, 0.78, breakdown.Vat)
	assert.Equal(t, 11.90, breakdown.Gross)
	assert.Equal(t, VATRateReduced, breakdown.VATRate)

	breakdown, err = CalculateVAT(3.50, enum.CategoryBeverage)
	require.NoError(t, err)

	assert.Equal(t, 2.94, breakdown.Net)
	assert.Equal(t, 0.56, breakdown.Vat)
	assert.Equal(t, 3.50, breakdown.Gross)
	assert.Equal(t, VATRateStandard, breakdown.VATRate)
}

func TestCalculateVATReconciles(t *testing.T) {
	prices := []float64{0.01, 0.99, 1.00, 3.33, 9.99, 11.90, 23.80, 99.95, 1234.56}
	categories := []enum.ProductCategory{enum.CategoryFood, enum.CategoryBeverage, enum.CategoryOther}

	for _, price := range prices {
		for _, category := range categories {
			breakdown, err := CalculateVAT(price, category)
			require.NoError(t, err)
			assert.True(t, money.Equal2(breakdown.Net+breakdown.Vat, breakdown.Gross),
				"net %.2f + vat %.2f should reconcile with gross %.2f", breakdown.Net, breakdown.Vat, breakdown.Gross)
			assert.Equal(t, price, breakdown.Gross)
		}
	}
}

func TestCalculateVATInvalidCategory(t *testing.T) {
	_, err := CalculateVAT(10.00, enum.ProductCategory("snacks"))
	assert.ErrorIs(t, err, apperror.ErrInvalidCategory)
}

func TestCalculateVATZeroGross(t *testing.T) {
	breakdown, err := CalculateVAT(0, enum.CategoryFood)
	require.NoError(t, err)
	assert.Zero(t, breakdown.Net)
	assert.Zero(t, breakdown.Vat)
	assert.Zero(t, breakdown.Gross)
}
