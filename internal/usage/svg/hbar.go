package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// HBars renders a horizontal bar chart, one row per label, in the given order.
// The chart height follows the number of rows.
func HBars(width int, values []float64, labels []string, opts HBarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	labelWidth := opts.LabelWidth
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}
	rowHeight := opts.BarHeight
	if rowHeight <= 0 {
		rowHeight = DefaultBarHeight
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")
	color := fallback(opts.Color, "#004b87")

	left := padding + labelWidth
	chartWidth := float64(width) - left - padding
	if chartWidth <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	chartHeight := rowHeight * float64(len(values))
	height := int(chartHeight + 2*padding)

	_, maxVal := bounds(values)
	if maxVal <= 0 {
		maxVal = 1
	}
	scale := chartWidth / maxVal

	var b strings.Builder
	openSVG(&b, width, height, opts.Title, "Horizontal bar chart", opts.Description, "Ranking", "hbar")

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		x := left + ratio*chartWidth
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", x, padding, x, padding+chartHeight, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, padding+chartHeight+14, axisColor, template.HTMLEscapeString(formatTick(maxVal*ratio)+opts.Unit))
	}
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\" aria-hidden=\"true\"></line>", left, padding, left, padding+chartHeight, axisColor)

	for i, value := range values {
		top := padding + float64(i)*rowHeight
		w := value * scale
		if w < 0 {
			w = 0
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"end\">%s</text>", left-6, top+rowHeight/2+4, axisColor, template.HTMLEscapeString(labels[i]))
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s: %s%s</title></rect>",
			left, top+rowHeight*0.15, w, rowHeight*0.7, color, template.HTMLEscapeString(labels[i]), formatValue(value), template.HTMLEscapeString(opts.Unit))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
