// Package charges implements the admin charges table: search, status badges
// and single-row expansion.
package charges

import (
	"strings"

	"github.com/samber/lo"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Filter keeps the summaries whose name or email contains q, ignoring case.
// The query is matched as typed, surrounding spaces included. An empty query
// keeps everything.
func Filter(list []hydro.ChargeSummary, q string) []hydro.ChargeSummary {
	needle := strings.ToLower(q)
	if needle == "" {
		return list
	}
	return lo.Filter(list, func(c hydro.ChargeSummary, _ int) bool {
		return matches(c.Customer(), needle)
	})
}

// Suggest returns at most limit customers matching q for a search dropdown.
// Unlike Filter the query is trimmed and an empty one suggests nothing.
func Suggest(list []hydro.ChargeSummary, q string, limit int) []hydro.Customer {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" || limit <= 0 {
		return nil
	}
	out := make([]hydro.Customer, 0, limit)
	for _, c := range list {
		if len(out) == limit {
			break
		}
		if customer := c.Customer(); matches(customer, needle) {
			out = append(out, customer)
		}
	}
	return out
}

// Find returns the summary for customerID.
func Find(list []hydro.ChargeSummary, customerID int64) (hydro.ChargeSummary, bool) {
	return lo.Find(list, func(c hydro.ChargeSummary) bool {
		return c.CustomerID == customerID
	})
}

func matches(c hydro.Customer, needle string) bool {
	return strings.Contains(strings.ToLower(c.CustomerName), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle)
}
