// Package usage derives the daily, monthly and summary views of a customer's
// water usage and loads the data behind the usage pages.
package usage

import (
	"math"
	"sort"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Class tags a daily total relative to the mean of its series.
type Class string

// Daily classifications.
const (
	ClassNormal           Class = "normal"
	ClassAboveAverage     Class = "above-average"
	ClassHighAboveAverage Class = "high-above-average"
)

// HighFactor is the multiple of the mean above which a day is flagged high.
const HighFactor = 1.3

// DailyPoint is one distinct date of a daily series.
type DailyPoint struct {
	Date  string
	Usage float64
	Class Class
}

// Label is the short axis label (MM-DD) for the point.
func (p DailyPoint) Label() string {
	if len(p.Date) > 5 {
		return p.Date[5:]
	}
	return p.Date
}

// MonthlyPoint is the total usage of one year-month.
type MonthlyPoint struct {
	Month string
	Total float64
}

// Stats summarises a record set.
type Stats struct {
	Total   float64
	Average float64
	Count   int
	// Peak is the first record holding the maximum usage; nil for an empty set.
	Peak *hydro.UsageRecord
}

// DailySeries sums records per date, sorts ascending by date and classifies
// each day against the mean of the daily totals.
func DailySeries(records []hydro.UsageRecord) []DailyPoint {
	totals := sumBy(records, func(r hydro.UsageRecord) string { return r.UsageDate })
	if len(totals) == 0 {
		return []DailyPoint{}
	}

	dates := sortedKeys(totals)
	sum := 0.0
	for _, date := range dates {
		sum += totals[date]
	}
	mean := sum / float64(len(dates))

	points := make([]DailyPoint, 0, len(dates))
	for _, date := range dates {
		total := totals[date]
		points = append(points, DailyPoint{
			Date:  date,
			Usage: Round2(total),
			Class: Classify(total, mean),
		})
	}
	return points
}

// Classify tags value against mean. Both thresholds are strict.
func Classify(value, mean float64) Class {
	switch {
	case value > mean*HighFactor:
		return ClassHighAboveAverage
	case value > mean:
		return ClassAboveAverage
	default:
		return ClassNormal
	}
}

// MonthlySeries sums records per year-month (the first seven characters of the
// date) in ascending month order.
func MonthlySeries(records []hydro.UsageRecord) []MonthlyPoint {
	totals := sumBy(records, func(r hydro.UsageRecord) string { return monthKey(r.UsageDate) })
	months := sortedKeys(totals)

	points := make([]MonthlyPoint, 0, len(months))
	for _, month := range months {
		points = append(points, MonthlyPoint{Month: month, Total: Round2(totals[month])})
	}
	return points
}

// SummaryStats computes total, mean and peak over the raw records.
func SummaryStats(records []hydro.UsageRecord) Stats {
	stats := Stats{Count: len(records)}
	for i := range records {
		value := records[i].Usage()
		stats.Total += value
		if stats.Peak == nil || value > stats.Peak.Usage() {
			peak := records[i]
			stats.Peak = &peak
		}
	}
	if stats.Count > 0 {
		stats.Average = stats.Total / float64(stats.Count)
	}
	return stats
}

// Tier buckets a percentage deviation from the average.
type Tier string

// Deviation tiers.
const (
	TierSevere Tier = "severe"
	TierMild   Tier = "mild"
	TierUnder  Tier = "under"
)

// DeviationPercent returns how far value sits from average, in percent.
// It is 0 when average is not positive.
func DeviationPercent(value, average float64) float64 {
	if average <= 0 {
		return 0
	}
	return (value - average) * 100 / average
}

// DeviationTier buckets pct: above 30 is severe, above 0 mild, otherwise under.
func DeviationTier(pct float64) Tier {
	switch {
	case pct > 30:
		return TierSevere
	case pct > 0:
		return TierMild
	default:
		return TierUnder
	}
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sumBy totals usage per key. Values within a key are added in ascending order
// so the result does not depend on the order of the input.
func sumBy(records []hydro.UsageRecord, key func(hydro.UsageRecord) string) map[string]float64 {
	groups := make(map[string][]float64)
	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r.Usage())
	}
	totals := make(map[string]float64, len(groups))
	for k, values := range groups {
		sort.Float64s(values)
		total := 0.0
		for _, v := range values {
			total += v
		}
		totals[k] = total
	}
	return totals
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
