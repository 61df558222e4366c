package ui

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/usage"
)

var classColors = map[usage.Class]string{
	usage.ClassNormal:           "#0ea5e9",
	usage.ClassAboveAverage:     "#f59e0b",
	usage.ClassHighAboveAverage: "#ef4444",
}

// ClassColor returns the bar colour for a daily classification.
func ClassColor(class usage.Class) string {
	if c, ok := classColors[class]; ok {
		return c
	}
	return classColors[usage.ClassNormal]
}

// Legend lists the daily chart colours in display order.
func Legend() []LegendItem {
	return []LegendItem{
		{Label: "Normal", Color: ClassColor(usage.ClassNormal)},
		{Label: "Above average", Color: ClassColor(usage.ClassAboveAverage)},
		{Label: "30%+ above average", Color: ClassColor(usage.ClassHighAboveAverage)},
	}
}

// WindowOptions builds the date-range selector with selected marked.
func WindowOptions(selected usage.Window) []WindowOption {
	return lo.Map(usage.Windows, func(w usage.Window, _ int) WindowOption {
		return WindowOption{Days: w.Days(), Label: w.Label(), Selected: w == selected}
	})
}

// NewFilters describes the query state of a page.
func NewFilters(window usage.Window, rng hydro.DateRange) Filters {
	return Filters{Window: window, Range: rng, Options: WindowOptions(window)}
}

// DailyChartData flattens daily points into renderer inputs.
func DailyChartData(points []usage.DailyPoint) (values []float64, labels, colors []string) {
	values = make([]float64, 0, len(points))
	labels = make([]string, 0, len(points))
	colors = make([]string, 0, len(points))
	for _, p := range points {
		values = append(values, p.Usage)
		labels = append(labels, p.Label())
		colors = append(colors, ClassColor(p.Class))
	}
	return values, labels, colors
}

// LabelEvery thins daily x-axis labels to roughly a dozen.
func LabelEvery(n int) int {
	return max(0, n/12-1) + 1
}

// NewSummaryCards builds the headline cards. summary may be nil.
func NewSummaryCards(stats usage.Stats, summary *hydro.UsageSummary) SummaryCards {
	cards := SummaryCards{
		Total:   usage.Round2(stats.Total),
		Average: usage.Round2(stats.Average),
	}
	if stats.Peak != nil {
		cards.HasPeak = true
		cards.PeakUsage = stats.Peak.Usage()
		cards.PeakDate = stats.Peak.UsageDate
	}
	if summary != nil {
		if summary.EstimatedCost != nil {
			cost := summary.EstimatedCost.Float64()
			cards.EstimatedCost = &cost
		}
		if summary.RatePerCCF != nil {
			rate := summary.RatePerCCF.Float64()
			cards.Rate = &rate
		}
	}
	return cards
}

// NewRecordTable keeps the first MaxRecordRows records in backend order and
// annotates each with its deviation from average.
func NewRecordTable(records []hydro.UsageRecord, average float64) RecordTable {
	shown := records
	if len(shown) > MaxRecordRows {
		shown = shown[:MaxRecordRows]
	}
	rows := lo.Map(shown, func(r hydro.UsageRecord, _ int) RecordRow {
		pct := usage.DeviationPercent(r.Usage(), average)
		return RecordRow{
			ID:        r.ID,
			Date:      r.UsageDate,
			Usage:     r.Usage(),
			Deviation: FormatDeviation(pct),
			Tier:      usage.DeviationTier(pct),
			Estimated: r.IsEstimated,
		}
	})
	return RecordTable{Rows: rows, Total: len(records), Truncated: len(records) > MaxRecordRows}
}

// FormatDeviation renders a signed whole percentage such as "+30%" or "-12%".
func FormatDeviation(pct float64) string {
	rounded := math.Round(pct)
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	if rounded >= 0 {
		return fmt.Sprintf("+%.0f%%", rounded)
	}
	return fmt.Sprintf("%.0f%%", rounded)
}

// NewMonthlyRows converts monthly points, pricing each month when rate is set.
func NewMonthlyRows(points []usage.MonthlyPoint, rate *float64) []MonthlyRow {
	return lo.Map(points, func(p usage.MonthlyPoint, _ int) MonthlyRow {
		row := MonthlyRow{Month: p.Month, Total: p.Total}
		if rate != nil {
			cost := usage.MonthlyCost(p.Total, *rate)
			row.Cost = &cost
		}
		return row
	})
}

// TruncateName shortens leaderboard labels longer than 22 characters.
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:truncatedLength]) + "…"
	}
	return name
}

// NewTopCustomerRows keeps the first TopChartSize leaderboard entries.
func NewTopCustomerRows(top []hydro.TopCustomer) []TopCustomerRow {
	if len(top) > TopChartSize {
		top = top[:TopChartSize]
	}
	return lo.Map(top, func(c hydro.TopCustomer, _ int) TopCustomerRow {
		return TopCustomerRow{
			CustomerID:   c.CustomerID,
			Name:         c.CustomerName,
			ChartLabel:   TruncateName(c.CustomerName),
			CustomerType: c.CustomerType,
			Usage:        usage.Round2(c.TotalUsageCCF.Float64()),
			RecordCount:  c.RecordCount,
		}
	})
}

// NewSuggestions converts directory entries for the search dropdown.
func NewSuggestions(customers []hydro.Customer) []Suggestion {
	return lo.Map(customers, func(c hydro.Customer, _ int) Suggestion {
		return Suggestion{CustomerID: c.CustomerID, Name: c.CustomerName, Email: c.Email, CustomerType: c.CustomerType}
	})
}
