// Package export serialises usage series for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/usage"
)

// WriteSummaryCSV serialises the headline statistics of a selection.
func WriteSummaryCSV(w io.Writer, rng hydro.DateRange, stats usage.Stats) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	peak, peakDate := "", ""
	if stats.Peak != nil {
		peak = formatFloat(stats.Peak.Usage())
		peakDate = stats.Peak.UsageDate
	}
	records := [][]string{
		{"Start Date", rng.Start},
		{"End Date", rng.End},
		{"Records", strconv.Itoa(stats.Count)},
		{"Total Usage (CCF)", formatFloat(stats.Total)},
		{"Average Daily (CCF)", formatFloat(stats.Average)},
		{"Peak Usage (CCF)", peak},
		{"Peak Date", peakDate},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDailyCSV emits the grouped daily series with its classification.
func WriteDailyCSV(w io.Writer, points []usage.DailyPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Usage (CCF)", "Class"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{point.Date, formatFloat(point.Usage), string(point.Class)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMonthlyCSV emits monthly totals, with an estimated cost column when
// rate is known.
func WriteMonthlyCSV(w io.Writer, points []usage.MonthlyPoint, rate *float64) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	header := []string{"Month", "Usage (CCF)"}
	if rate != nil {
		header = append(header, "Estimated Cost")
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, point := range points {
		row := []string{point.Month, formatFloat(point.Total)}
		if rate != nil {
			row = append(row, formatFloat(usage.MonthlyCost(point.Total, *rate)))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
