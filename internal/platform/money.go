package platform

import "math"

// BasisPointsMax is 100%.
const BasisPointsMax = 10000

// LineTotal returns quantity × unit price, rounded half away from zero to the cent.
func LineTotal(quantity float64, unitPriceCents int64) int64 {
	return int64(math.Round(quantity * float64(unitPriceCents)))
}

// ApplyBasisPoints returns amount × bps / 10000, rounded to the cent.
func ApplyBasisPoints(amountCents, bps int64) int64 {
	return int64(math.Round(float64(amountCents) * float64(bps) / BasisPointsMax))
}
