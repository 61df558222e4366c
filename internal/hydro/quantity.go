package hydro

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a non-negative numeric field that the backend may encode either as
// a JSON number or as text. Missing or unparseable values decode to zero, so
// callers never re-parse numbers after the response boundary.
type Quantity float64

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = 0
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		raw = strings.TrimSpace(text)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	f, _ := value.Float64()
	*q = Quantity(f)
	return nil
}

// Float64 returns the numeric value.
func (q Quantity) Float64() float64 {
	return float64(q)
}

// ParseQuantity applies the same coercion rules to a plain string.
func ParseQuantity(text string) Quantity {
	value, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	f, _ := value.Float64()
	return Quantity(f)
}
