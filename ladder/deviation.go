package ladder

// Deviations folds the price-deviation recurrence over count safety orders
// and returns the cumulative deviation (in %) of each one.
//
// For a long ladder each step is dev = dev*stepScale - increment, starting
// from 0, so deviations are negative and widen geometrically when
// stepScale > 1. A short ladder mirrors the sign.
func Deviations(count int, stepScale, increment float64, long bool) []float64 {
	if count <= 0 {
		return nil
	}
	if !long {
		increment = -increment
	}

	devs := make([]float64, count)
	dev := 0.0
	for i := range devs {
		dev = nextDeviation(dev, stepScale, increment)
		devs[i] = dev
	}
	return devs
}

func nextDeviation(prev, stepScale, increment float64) float64 {
	return prev*stepScale - increment
}
