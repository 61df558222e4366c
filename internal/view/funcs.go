package view

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FuncMap returns the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"ccf":       FormatCCF,
		"money":     FormatMoney,
		"count":     FormatCount,
		"bytes":     FormatBytes,
		"deref":     deref,
		"add":       func(a, b int) int { return a + b },
		"lower":     strings.ToLower,
		"title":     titleCase,
		"pluralize": pluralize,
	}
}

// FormatCCF renders a usage volume with grouping and two decimals.
func FormatCCF(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatMoney renders a dollar amount with grouping and two decimals.
func FormatMoney(v float64) string {
	if v < 0 {
		return "-$" + FormatCCF(-v)
	}
	return "$" + FormatCCF(v)
}

// FormatCount renders an integer with digit grouping.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatBytes renders a byte size such as "100 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
