package charges

import (
	"sort"
	"strings"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Tone is the visual style of a status badge.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
)

// Badge is one "N status" pill in the status summary column.
type Badge struct {
	Status string
	Count  int
	Tone   Tone
}

var knownOrder = []string{hydro.StatusPaid, hydro.StatusSent, hydro.StatusOverdue, hydro.StatusPending}

// StatusTone maps a bill status to its tone. Unknown statuses share the
// pending tone.
func StatusTone(status string) Tone {
	switch strings.ToLower(status) {
	case hydro.StatusPaid:
		return ToneSuccess
	case hydro.StatusSent:
		return ToneInfo
	case hydro.StatusOverdue:
		return ToneDanger
	default:
		return ToneWarning
	}
}

// Badges builds one badge per status present in counts, known statuses first
// in lifecycle order and unknown ones alphabetically after them. Statuses are
// compared case-insensitively; counts differing only in case are merged.
func Badges(raw map[string]int) []Badge {
	if len(raw) == 0 {
		return nil
	}
	counts := make(map[string]int, len(raw))
	for status, count := range raw {
		counts[strings.ToLower(status)] += count
	}
	badges := make([]Badge, 0, len(counts))
	seen := make(map[string]bool, len(knownOrder))
	for _, status := range knownOrder {
		if count, ok := counts[status]; ok {
			badges = append(badges, Badge{Status: status, Count: count, Tone: StatusTone(status)})
			seen[status] = true
		}
	}
	rest := make([]string, 0, len(counts)-len(seen))
	for status := range counts {
		if !seen[status] {
			rest = append(rest, status)
		}
	}
	sort.Strings(rest)
	for _, status := range rest {
		badges = append(badges, Badge{Status: status, Count: counts[status], Tone: StatusTone(status)})
	}
	return badges
}
