package ladder

import "fmt"

// InvalidInputError reports an argument that would make the ladder
// numerically undefined (zero price, zero leverage, empty sizes...).
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func invalid(field string, v float64, reason string) error {
	return &InvalidInputError{Field: field, Value: v, Reason: reason}
}
