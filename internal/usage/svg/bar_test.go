package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{5, 12, 3}, []string{"06-01", "06-02", "06-03"}, []string{"#0ea5e9", "#ef4444", ""}, BarOpts{
		Title: "Daily Usage",
		Unit:  " CCF",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if got := strings.Count(output, "<rect"); got != 3 {
		t.Fatalf("expected 3 bars, got %d", got)
	}
	if !strings.Contains(output, `fill="#ef4444"><title>06-02: 12 CCF</title>`) {
		t.Fatalf("expected per-bar colour and tooltip, got %s", output)
	}
	if strings.Count(output, `fill="#0ea5e9"`) != 2 {
		t.Fatalf("expected empty colour to fall back to default")
	}
}

func TestBarsLabelEvery(t *testing.T) {
	values := make([]float64, 10)
	labels := make([]string, 10)
	for i := range labels {
		values[i] = float64(i)
		labels[i] = "L" + string(rune('a'+i))
	}
	html, err := Bars(600, 200, values, labels, nil, BarOpts{LabelEvery: 3})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	for _, want := range []string{">La<", ">Ld<", ">Lg<", ">Lj<"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected label %s", want)
		}
	}
	if strings.Contains(output, ">Lb<") {
		t.Fatalf("expected label Lb to be skipped")
	}
}

func TestBarsValidatesInput(t *testing.T) {
	if _, err := Bars(400, 200, nil, nil, nil, BarOpts{}); err == nil {
		t.Fatalf("expected error for empty values")
	}
	if _, err := Bars(400, 200, []float64{1}, []string{"a"}, []string{"x", "y"}, BarOpts{}); err == nil {
		t.Fatalf("expected error for extra colours")
	}
}

func TestHBarsGrowsWithRows(t *testing.T) {
	html, err := HBars(600, []float64{30, 20}, []string{"Ada", "Grace & Co"}, HBarOpts{Title: "Top Customers"})
	if err != nil {
		t.Fatalf("hbars renderer error: %v", err)
	}
	output := string(html)
	if !strings.Contains(output, `viewBox="0 0 600 100"`) {
		t.Fatalf("expected height from two rows, got %s", output)
	}
	if !strings.Contains(output, "Grace &amp; Co") {
		t.Fatalf("expected escaped label")
	}
	if got := strings.Count(output, "<rect"); got != 2 {
		t.Fatalf("expected 2 bars, got %d", got)
	}
}
