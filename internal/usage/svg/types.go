package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the vertical bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	// Color is used for bars without an entry in the per-bar colours.
	Color     string
	AxisColor string
	GridColor string
	Padding   float64
	TickCount int
	// LabelEvery shows every n-th x-axis label; 0 or 1 shows all.
	LabelEvery int
	Unit       string
}

// HBarOpts customises the horizontal bar chart renderer.
type HBarOpts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	GridColor   string
	// LabelWidth is the room reserved left of the bars for category names.
	LabelWidth float64
	BarHeight  float64
	Padding    float64
	TickCount  int
	Unit       string
}

// Defaults for the usage charts.
const (
	DefaultWidth      = 720
	DefaultHeight     = 260
	DefaultPadding    = 28.0
	DefaultTicks      = 5
	DefaultLabelWidth = 150.0
	DefaultBarHeight  = 22.0
)
