package charges

import "strconv"

// ToggleExpanded returns the row to expand after clicking id: clicking the
// open row collapses it (0), any other row replaces it.
func ToggleExpanded(current, id int64) int64 {
	if current == id {
		return 0
	}
	return id
}

// ParseExpanded reads the expanded row from a query value; invalid means none.
func ParseExpanded(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
