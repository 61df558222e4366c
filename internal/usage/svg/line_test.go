package svg

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{100, 200, 150}, []string{"2024-01", "2024-02", "2024-03"}, LineOpts{
		Title:       "Monthly Usage",
		Description: "Monthly usage in CCF",
		ShowDots:    true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, `aria-labelledby="monthly-usage-line-title monthly-usage-line-desc"`) {
		t.Fatalf("expected accessibility attributes, got %s", output)
	}
	if got := strings.Count(output, "<circle"); got != 3 {
		t.Fatalf("expected 3 dots, got %d", got)
	}
}

func TestLineSinglePoint(t *testing.T) {
	if _, err := Line(400, 200, []float64{5}, []string{"2024-01"}, LineOpts{}); err != nil {
		t.Fatalf("single point should render: %v", err)
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	if _, err := Line(400, 200, []float64{1, 2}, []string{"a"}, LineOpts{}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
	if _, err := Line(400, 200, nil, nil, LineOpts{}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}
