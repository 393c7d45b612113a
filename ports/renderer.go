package ports

import (
	"abanalyzer/domain/abtest"
)

// RenderOptions carries presentation settings for one chart. The renderer
// owns the visual details; callers only name the artifact and bound the axis.
type RenderOptions struct {
	YLabel     string
	YMin       *float64
	YMax       *float64
	OutputPath string
}

// ChartRenderer draws error-bar charts from analysis tables. Rendering is
// fire-and-forget from the analysis' point of view: a render failure never
// invalidates the computed tables.
type ChartRenderer interface {
	// RenderDifference draws one point with error bars per category.
	RenderDifference(table abtest.DifferenceTable, opts RenderOptions) error
	// RenderMagnitude draws per-variation points side by side for each
	// category, with a variation legend.
	RenderMagnitude(table abtest.MagnitudeTable, opts RenderOptions) error
}
