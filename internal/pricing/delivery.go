package pricing

import "github.com/shopspring/decimal"

var freeShippingThreshold = decimal.NewFromInt(150000)

const (
	sizeSmallMax  = 2412
	sizeMediumMax = 6609
	sizeLargeMax  = 10629
)

// DeliveryCharge returns the shipping fee for an artwork. Rules are checked in
// order and the first match wins: the price threshold beats every size tier.
func DeliveryCharge(price decimal.Decimal, size int) int64 {
	switch {
	case price.GreaterThanOrEqual(freeShippingThreshold):
		return 0
	case size < sizeSmallMax:
		return 3000
	case size < sizeMediumMax:
		return 4000
	default:
		return 5000
	}
}

// SizeClass buckets an artwork size into the S/M/L/XL bands shown in listings.
func SizeClass(size int) string {
	switch {
	case size < sizeSmallMax:
		return "S"
	case size < sizeMediumMax:
		return "M"
	case size < sizeLargeMax:
		return "L"
	default:
		return "XL"
	}
}
