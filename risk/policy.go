package risk

// Policy are the limits a computed ladder is checked against. A zero limit
// is not enforced.
type Policy struct {
	// Share of the balance the ladder may lock as margin, 0.5 = 50%.
	MaxBalanceUsed float64

	// Deepest safety-order deviation allowed, in %.
	MaxDeviation float64
}
