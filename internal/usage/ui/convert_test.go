package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/usage"
)

func TestLabelEvery(t *testing.T) {
	cases := map[int]int{0: 1, 7: 1, 24: 2, 30: 2, 90: 7, 365: 30}
	for n, want := range cases {
		assert.Equal(t, want, LabelEvery(n), "n=%d", n)
	}
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Short Name", TruncateName("Short Name"))
	exact := "ABCDEFGHIJKLMNOPQRSTUV"
	require.Len(t, exact, 22)
	assert.Equal(t, exact, TruncateName(exact))
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST…", TruncateName(exact+"W"))
}

func TestNewTopCustomerRowsCapsAtFifteen(t *testing.T) {
	top := make([]hydro.TopCustomer, 20)
	for i := range top {
		top[i] = hydro.TopCustomer{CustomerID: int64(i + 1), CustomerName: fmt.Sprintf("Customer %d", i+1), TotalUsageCCF: hydro.Quantity(100 - i)}
	}
	rows := NewTopCustomerRows(top)
	require.Len(t, rows, TopChartSize)
	assert.Equal(t, int64(1), rows[0].CustomerID)
	assert.Equal(t, 100.0, rows[0].Usage)
}

func TestNewRecordTable(t *testing.T) {
	records := make([]hydro.UsageRecord, 0, 120)
	for i := 0; i < 120; i++ {
		records = append(records, hydro.UsageRecord{ID: int64(i), UsageDate: "2024-01-01", DailyUsageCCF: 10})
	}
	records[0].DailyUsageCCF = 14
	records[1].DailyUsageCCF = 11
	records[2].DailyUsageCCF = 5
	records[2].IsEstimated = true

	table := NewRecordTable(records, 10)
	require.Len(t, table.Rows, MaxRecordRows)
	assert.Equal(t, 120, table.Total)
	assert.True(t, table.Truncated)

	assert.Equal(t, "+40%", table.Rows[0].Deviation)
	assert.Equal(t, usage.TierSevere, table.Rows[0].Tier)
	assert.Equal(t, "+10%", table.Rows[1].Deviation)
	assert.Equal(t, usage.TierMild, table.Rows[1].Tier)
	assert.Equal(t, "-50%", table.Rows[2].Deviation)
	assert.Equal(t, usage.TierUnder, table.Rows[2].Tier)
	assert.True(t, table.Rows[2].Estimated)
	assert.Equal(t, "+0%", table.Rows[3].Deviation)
}

func TestNewRecordTableSmallSet(t *testing.T) {
	table := NewRecordTable([]hydro.UsageRecord{{ID: 1, DailyUsageCCF: 3}}, 0)
	assert.False(t, table.Truncated)
	assert.Equal(t, "+0%", table.Rows[0].Deviation)
}

func TestFormatDeviation(t *testing.T) {
	assert.Equal(t, "+30%", FormatDeviation(30))
	assert.Equal(t, "+0%", FormatDeviation(0.4))
	assert.Equal(t, "+0%", FormatDeviation(-0.4))
	assert.Equal(t, "-1%", FormatDeviation(-0.6))
	assert.Equal(t, "-13%", FormatDeviation(-12.6))
}

func TestNewMonthlyRowsPricesWhenRateKnown(t *testing.T) {
	points := []usage.MonthlyPoint{{Month: "2024-01", Total: 8.25}, {Month: "2024-02", Total: 4}}
	rows := NewMonthlyRows(points, nil)
	assert.Nil(t, rows[0].Cost)

	rate := 2.5
	rows = NewMonthlyRows(points, &rate)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, 20.63, *rows[0].Cost)
	assert.Equal(t, 10.0, *rows[1].Cost)
}

func TestNewSummaryCards(t *testing.T) {
	records := []hydro.UsageRecord{
		{ID: 1, UsageDate: "2024-01-01", DailyUsageCCF: 2},
		{ID: 2, UsageDate: "2024-01-02", DailyUsageCCF: 5},
	}
	cost := hydro.Quantity(17.5)
	cards := NewSummaryCards(usage.SummaryStats(records), &hydro.UsageSummary{EstimatedCost: &cost})
	assert.Equal(t, 7.0, cards.Total)
	assert.Equal(t, 3.5, cards.Average)
	assert.True(t, cards.HasPeak)
	assert.Equal(t, "2024-01-02", cards.PeakDate)
	require.NotNil(t, cards.EstimatedCost)
	assert.Equal(t, 17.5, *cards.EstimatedCost)
	assert.Nil(t, cards.Rate)

	empty := NewSummaryCards(usage.SummaryStats(nil), nil)
	assert.False(t, empty.HasPeak)
	assert.Nil(t, empty.EstimatedCost)
}

func TestDailyChartDataColoursByClass(t *testing.T) {
	points := []usage.DailyPoint{
		{Date: "2024-06-01", Usage: 1, Class: usage.ClassNormal},
		{Date: "2024-06-02", Usage: 9, Class: usage.ClassHighAboveAverage},
	}
	values, labels, colors := DailyChartData(points)
	assert.Equal(t, []float64{1, 9}, values)
	assert.Equal(t, []string{"06-01", "06-02"}, labels)
	assert.Equal(t, []string{"#0ea5e9", "#ef4444"}, colors)
}

func TestWindowOptionsMarksSelection(t *testing.T) {
	opts := WindowOptions(90)
	require.Len(t, opts, 4)
	selected := 0
	for _, o := range opts {
		if o.Selected {
			selected++
			assert.Equal(t, 90, o.Days)
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, "Last Year", opts[3].Label)
}
