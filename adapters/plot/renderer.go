package plot

import (
	"fmt"
	"image/color"
	"math"

	vgplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"abanalyzer/domain/abtest"
	"abanalyzer/ports"
)

const (
	figureSize = 10 * vg.Inch
	// Horizontal offset of per-variation points around a category tick in
	// the magnitude plot.
	groupOffset = 0.1
)

// Renderer draws error-bar charts to image files. Every call builds its own
// figure; no drawing state is shared between charts.
type Renderer struct{}

// NewRenderer creates a chart renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// errPoints marries point coordinates with their confidence radii so one
// value feeds both the scatter and the error bars.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// RenderDifference draws one point with symmetric error bars per category.
func (r *Renderer) RenderDifference(table abtest.DifferenceTable, opts ports.RenderOptions) error {
	if len(table.Rows) == 0 {
		return fmt.Errorf("no rows to chart for %q", table.Title)
	}
	p := newFigure(table.Title, opts.YLabel)

	data := errPoints{
		XYs:     make(plotter.XYs, len(table.Rows)),
		YErrors: make(plotter.YErrors, len(table.Rows)),
	}
	categories := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		data.XYs[i] = plotter.XY{X: float64(i), Y: row.Mean}
		data.YErrors[i] = struct{ Low, High float64 }{row.ConfidenceRadius, row.ConfidenceRadius}
		categories[i] = row.Category
	}

	if _, err := addErrorPoints(p, data, plotutil.Color(0)); err != nil {
		return err
	}

	finishCategoryAxis(p, categories, 0)
	applyBounds(p, opts)
	return save(p, opts.OutputPath)
}

// RenderMagnitude draws the per-variation points side by side around each
// category tick, one color per variation, with a legend.
func (r *Renderer) RenderMagnitude(table abtest.MagnitudeTable, opts ports.RenderOptions) error {
	if len(table.Rows) == 0 {
		return fmt.Errorf("no rows to chart for %q", table.Title)
	}
	p := newFigure(table.Title, opts.YLabel)

	categories := categoryOrder(table)
	tick := make(map[string]int, len(categories))
	for i, category := range categories {
		tick[category] = i
	}

	for j, variation := range table.Variations {
		var data errPoints
		for _, row := range table.Rows {
			if row.Variation != variation {
				continue
			}
			x := float64(tick[row.Category]) + offsetFor(j, len(table.Variations))
			data.XYs = append(data.XYs, plotter.XY{X: x, Y: row.Mean})
			data.YErrors = append(data.YErrors, struct{ Low, High float64 }{row.ConfidenceRadius, row.ConfidenceRadius})
		}

		scatter, err := addErrorPoints(p, data, plotutil.Color(j))
		if err != nil {
			return err
		}
		p.Legend.Add(variation, scatter)
	}
	p.Legend.Top = true

	finishCategoryAxis(p, categories, groupOffset)
	// Magnitudes are rates; anchor the axis at zero unless told otherwise.
	if opts.YMin == nil {
		zero := 0.0
		opts.YMin = &zero
	}
	applyBounds(p, opts)
	return save(p, opts.OutputPath)
}

func newFigure(title, yLabel string) *vgplot.Plot {
	p := vgplot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Title.TextStyle.Font.Size = vg.Points(24)
	p.Y.Label.TextStyle.Font.Size = vg.Points(18)
	return p
}

func addErrorPoints(p *vgplot.Plot, data errPoints, c color.Color) (*plotter.Scatter, error) {
	scatter, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return nil, fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(6)
	scatter.GlyphStyle.Color = c

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return nil, fmt.Errorf("failed to build error bars: %w", err)
	}
	bars.LineStyle.Width = vg.Points(2)
	bars.LineStyle.Color = c
	bars.CapWidth = vg.Points(10)

	p.Add(scatter, bars)
	return scatter, nil
}

func finishCategoryAxis(p *vgplot.Plot, categories []string, margin float64) {
	p.NominalX(categories...)
	p.X.Min = -0.5 - margin
	p.X.Max = float64(len(categories)-1) + 0.5 + margin
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(12)
}

func applyBounds(p *vgplot.Plot, opts ports.RenderOptions) {
	if opts.YMin != nil {
		p.Y.Min = *opts.YMin
	}
	if opts.YMax != nil {
		p.Y.Max = *opts.YMax
	}
}

func save(p *vgplot.Plot, path string) error {
	if path == "" {
		return fmt.Errorf("no output path for chart")
	}
	if err := p.Save(figureSize, figureSize, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

// offsetFor spreads variation j of n evenly around the tick.
func offsetFor(j, n int) float64 {
	if n <= 1 {
		return 0
	}
	spread := groupOffset * 2
	return -groupOffset + spread*float64(j)/float64(n-1)
}

func categoryOrder(table abtest.MagnitudeTable) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range table.Rows {
		if !seen[row.Category] {
			seen[row.Category] = true
			out = append(out, row.Category)
		}
	}
	return out
}
