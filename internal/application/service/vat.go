package service

import (
	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/pkg/apperror"
	"github.com/gastrokasse/fiskal-api/pkg/money"
)

// German VAT rates. The zero rate is part of the legal rate table even
// though no product category currently maps to it.
const (
	VATRateStandard = 0.19
	VATRateReduced  = 0.07
	VATRateZero     = 0.00
)

// VATBreakdown is the net/VAT/gross split of one gross amount.
type VATBreakdown struct {
	Net     float64 `json:"net"`
	Vat     float64 `json:"vat"`
	Gross   float64 `json:"gross"`
	VATRate float64 `json:"vat_rate"`
}

// RateForCategory maps a product category to its VAT rate. Restaurant food
// is taxed at the reduced rate; beverages and everything else at the
// standard rate. Unknown categories are rejected, not defaulted.
func RateForCategory(category enum.ProductCategory) (float64, error) {
	switch category {
	case enum.CategoryFood:
		return VATRateReduced, nil
	case enum.CategoryBeverage, enum.CategoryOther:
		return VATRateStandard, nil
	}
	return 0, apperror.ErrInvalidCategory
}

// CalculateVAT splits a gross (VAT-inclusive) price into net and VAT
// portions for the given category. All three amounts are rounded to cents,
// so net + vat == gross holds within a cent.
func CalculateVAT(gross float64, category enum.ProductCategory) (VATBreakdown, error) {
	rate, err := RateForCategory(category)
	if err != nil {
		return VATBreakdown{}, err
	}

	net := gross / (1 + rate)
	vat := gross - net

	return VATBreakdown{
		Net:     money.Round2(net),
		Vat:     money.Round2(vat),
		Gross:   money.Round2(gross),
		VATRate: rate,
	}, nil
}
