package ladder

// PercentType marks an OrderPolicy whose Value is a percentage of the balance.
const PercentType = "%"

// OrderPolicy sizes the base order and the first safety order.
// Type "%" means Value is a percentage of the account balance, anything
// else means Value is an absolute amount in quote currency.
type OrderPolicy struct {
	Value float64 `json:"value" yaml:"value"`
	Type  string  `json:"type" yaml:"type"`
}

// Volume resolves the policy against the account balance.
func (p OrderPolicy) Volume(balance float64) float64 {
	if p.Type == PercentType {
		return balance * p.Value / 100
	}
	return p.Value
}

// SafetyOrderPolicy describes how safety orders are spaced and scaled.
type SafetyOrderPolicy struct {
	OrderPolicy `yaml:",inline"`

	Count       int     `json:"count" yaml:"count"`
	StepScale   float64 `json:"step_scale" yaml:"step_scale"`     // multiplier on the cumulative deviation
	PriceDev    float64 `json:"price_dev" yaml:"price_dev"`       // % increment added every step
	VolumeScale float64 `json:"volume_scale" yaml:"volume_scale"` // compounding multiplier on volume
}
