package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Bars renders a vertical bar chart. colors optionally assigns a fill per bar;
// missing or empty entries use opts.Color.
func Bars(width, height int, values []float64, labels []string, colors []string, opts BarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if len(colors) > len(values) {
		return "", fmt.Errorf("svg: more colors than values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	every := opts.LabelEvery
	if every <= 0 {
		every = 1
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")
	color := fallback(opts.Color, "#0ea5e9")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := valueRange(values)
	scale := chartHeight / (maxVal - minVal)
	zeroY := padding + chartHeight - (0-minVal)*scale
	chartBottom := padding + chartHeight

	slot := chartWidth / float64(len(values))
	barWidth := slot * 0.7

	var b strings.Builder
	openSVG(&b, width, height, opts.Title, "Bar chart", opts.Description, "Bar comparison", "bar")
	grid(&b, padding, chartWidth, chartHeight, minVal, maxVal, tickCount, axisColor, gridColor, opts.Unit)
	axes(&b, padding, chartWidth, chartHeight, zeroY, axisColor)

	for i, value := range values {
		fill := color
		if i < len(colors) && strings.TrimSpace(colors[i]) != "" {
			fill = colors[i]
		}
		x := padding + float64(i)*slot + (slot-barWidth)/2
		y, h := barPosition(value, scale, zeroY, padding, chartBottom)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s: %s%s</title></rect>",
			x, y, barWidth, h, fill, template.HTMLEscapeString(labels[i]), formatValue(value), template.HTMLEscapeString(opts.Unit))
	}

	for i, label := range labels {
		if i%every != 0 {
			continue
		}
		center := padding + float64(i)*slot + slot/2
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, chartBottom+14, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := -value * scale
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
