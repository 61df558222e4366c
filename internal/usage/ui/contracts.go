package ui

import (
	"html/template"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/usage"
	"github.com/hydrospark/hydrodash/internal/usage/svg"
)

// Display limits shared by the usage pages.
const (
	MaxRecordRows   = 100
	TopChartSize    = 15
	MaxSuggestions  = 8
	maxNameLength   = 22
	truncatedLength = 20
)

// WindowOption is one entry of the date-range selector.
type WindowOption struct {
	Days     int
	Label    string
	Selected bool
}

// Filters represents the sanitized query state of a usage page.
type Filters struct {
	Window  usage.Window
	Range   hydro.DateRange
	Options []WindowOption
}

// SummaryCards are the headline numbers above the daily chart.
type SummaryCards struct {
	Total     float64
	Average   float64
	HasPeak   bool
	PeakUsage float64
	PeakDate  string
	// EstimatedCost and Rate are nil when the backend could not price usage.
	EstimatedCost *float64
	Rate          *float64
}

// LegendItem explains one daily bar colour.
type LegendItem struct {
	Label string
	Color string
}

// RecordRow is one line of the records table.
type RecordRow struct {
	ID        int64
	Date      string
	Usage     float64
	Deviation string
	Tier      usage.Tier
	Estimated bool
}

// RecordTable holds the first MaxRecordRows records and the full count.
type RecordTable struct {
	Rows      []RecordRow
	Total     int
	Truncated bool
}

// MonthlyRow is one line of the monthly breakdown table.
type MonthlyRow struct {
	Month string
	Total float64
	// Cost is set only when a rate is known.
	Cost *float64
}

// TopCustomerRow backs both the leaderboard chart and its table.
type TopCustomerRow struct {
	CustomerID   int64
	Name         string
	ChartLabel   string
	CustomerType string
	Usage        float64
	RecordCount  int
}

// Suggestion is one entry of the customer search dropdown.
type Suggestion struct {
	CustomerID   int64
	Name         string
	Email        string
	CustomerType string
}

// CustomerDetail is the selected customer block on the admin overview, also
// served as a standalone fragment.
type CustomerDetail struct {
	Customer    hydro.Customer
	Cards       SummaryCards
	DailySVG    template.HTML
	Legend      []LegendItem
	MonthlySVG  template.HTML
	Monthly     []MonthlyRow
	ShowMonthly bool
	Records     RecordTable
	Empty       bool
	Error       string
	ExportHref  string
}

// AdminViewModel combines the admin usage overview data for rendering.
type AdminViewModel struct {
	Filters        Filters
	Error          string
	TopCustomers   []TopCustomerRow
	TopSVG         template.HTML
	Search         string
	Suggestions    []Suggestion
	DirectoryError string
	Selected       *CustomerDetail
}

// CustomerViewModel combines the customer's own usage page data for rendering.
type CustomerViewModel struct {
	Filters     Filters
	Error       string
	Cards       SummaryCards
	DailySVG    template.HTML
	Legend      []LegendItem
	MonthlySVG  template.HTML
	Monthly     []MonthlyRow
	ShowMonthly bool
	Records     RecordTable
	Empty       bool
}

// LineRenderer abstracts SVG line chart rendering for the usage pages.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG vertical bar chart rendering for the usage pages.
type BarRenderer interface {
	Bars(width, height int, values []float64, labels []string, colors []string, opts svg.BarOpts) (template.HTML, error)
}

// HBarRenderer abstracts SVG horizontal bar chart rendering for the leaderboard.
type HBarRenderer interface {
	HBars(width int, values []float64, labels []string, opts svg.HBarOpts) (template.HTML, error)
}
