package usage

import (
	"strconv"
	"strings"
	"time"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Window is a trailing date-range selection in days, ending today.
type Window int

// DefaultWindow is used when no or an unknown window is requested.
const DefaultWindow Window = 30

// Windows lists the selectable windows in display order.
var Windows = []Window{7, 30, 90, 365}

const isoDate = "2006-01-02"

// ParseWindow parses a window selection, falling back to DefaultWindow.
func ParseWindow(raw string) Window {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultWindow
	}
	for _, w := range Windows {
		if int(w) == days {
			return w
		}
	}
	return DefaultWindow
}

// Days returns the window length.
func (w Window) Days() int {
	return int(w)
}

// Label is the human readable name of the window.
func (w Window) Label() string {
	if w == 365 {
		return "Last Year"
	}
	return "Last " + strconv.Itoa(int(w)) + " Days"
}

// Range returns [now-w, now] as ISO dates in UTC.
func (w Window) Range(now time.Time) hydro.DateRange {
	end := now.UTC()
	start := end.AddDate(0, 0, -int(w))
	return hydro.DateRange{Start: start.Format(isoDate), End: end.Format(isoDate)}
}

// MonthlyCost estimates the cost of a monthly total at rate per CCF.
func MonthlyCost(total, rate float64) float64 {
	return Round2(total * rate)
}
