package ladder

import "github.com/shopspring/decimal"

// Quantize converts the quote amount desiredVolume into an order size the
// exchange accepts at price, and reports the volume that size actually buys.
//
// The size is rounded up to the next multiple of stepSize, so the filled
// notional is never below the request, then raised to minQty if needed.
// The returned volume is desiredVolume rescaled by the same factor the size
// moved by, keeping size and volume consistent.
//
// Preconditions: desiredVolume, price, stepSize and minQty are all > 0.
// Quantize does not check them; Compute does.
func Quantize(desiredVolume, price, stepSize, minQty float64) (size, volume float64) {
	rawSize := desiredVolume / price

	step := decimal.NewFromFloat(stepSize)
	steps := decimal.NewFromFloat(desiredVolume).
		Div(decimal.NewFromFloat(price)).
		Div(step).
		Ceil()
	size = steps.Mul(step).InexactFloat64()
	if size < minQty {
		size = minQty
	}

	volume = desiredVolume * (size / rawSize)
	return size, volume
}
