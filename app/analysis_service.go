package app

import (
	"context"
	"fmt"
	"path/filepath"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
	"abanalyzer/internal"
	"abanalyzer/internal/config"
	"abanalyzer/internal/report"
	"abanalyzer/ports"
)

// AnalysisResult describes the artifacts of one analysis run.
type AnalysisResult struct {
	RunID      core.RunID
	ChartPath  string
	ReportPath string
	HTMLPath   string
	Categories int
}

// AnalysisService wires a dataset source, the comparator, the chart renderer
// and the report writer into one run. The chart hand-off is fire-and-forget:
// a rendering failure is logged, never returned.
type AnalysisService struct {
	reader   ports.ObservationReader
	renderer ports.ChartRenderer
	reports  *report.Writer
	cfg      *config.AnalysisConfig
	paths    *config.PathConfig
	log      *internal.Logger
	// runID, when set, pins artifact names; otherwise each run draws a
	// fresh one.
	runID core.RunID
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(reader ports.ObservationReader, renderer ports.ChartRenderer, reports *report.Writer, cfg *config.AnalysisConfig, paths *config.PathConfig) *AnalysisService {
	return &AnalysisService{
		reader:   reader,
		renderer: renderer,
		reports:  reports,
		cfg:      cfg,
		paths:    paths,
		log:      internal.DefaultLogger,
	}
}

// WithRunID pins the run ID used for artifact names, so reruns overwrite
// their predecessor's chart and report instead of accumulating.
func (s *AnalysisService) WithRunID(id core.RunID) *AnalysisService {
	s.runID = id
	return s
}

func (s *AnalysisService) nextRunID() core.RunID {
	if !core.ID(s.runID).IsEmpty() {
		return s.runID
	}
	return core.NewRunID()
}

// RunChange performs a change analysis: per-category difference estimates
// between the two variations, with optional significance output.
func (s *AnalysisService) RunChange(ctx context.Context, title string, yMin, yMax *float64) (*AnalysisResult, error) {
	comparator, dataset, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}

	table, err := comparator.ChangeAnalysis(title)
	if err != nil {
		return nil, err
	}

	if table.HasSignificance {
		for _, row := range table.Rows {
			s.log.Info("Significance for %s = %v", row.Category, row.Significance)
		}
	}

	runID := s.nextRunID()
	result := &AnalysisResult{RunID: runID, Categories: len(table.Rows)}

	result.ChartPath = s.chartPath("change", runID)
	if err := s.renderer.RenderDifference(table, ports.RenderOptions{
		YLabel:     "Difference",
		YMin:       yMin,
		YMax:       yMax,
		OutputPath: result.ChartPath,
	}); err != nil {
		s.log.Warn("chart rendering failed: %v", err)
		result.ChartPath = ""
	}

	result.ReportPath, result.HTMLPath, err = s.reports.WriteChange(runID, table, s.cfg.Confidence, dataset)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunMagnitude performs a magnitude analysis: per-category, per-variation
// raw-rate estimates.
func (s *AnalysisService) RunMagnitude(ctx context.Context, title string) (*AnalysisResult, error) {
	comparator, dataset, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}

	table, err := comparator.MagnitudeAnalysis(title)
	if err != nil {
		return nil, err
	}

	runID := s.nextRunID()
	result := &AnalysisResult{RunID: runID, Categories: len(dataset.Categories())}

	result.ChartPath = s.chartPath("magnitude", runID)
	if err := s.renderer.RenderMagnitude(table, ports.RenderOptions{
		YLabel:     "Magnitude",
		OutputPath: result.ChartPath,
	}); err != nil {
		s.log.Warn("chart rendering failed: %v", err)
		result.ChartPath = ""
	}

	result.ReportPath, result.HTMLPath, err = s.reports.WriteMagnitude(runID, table, s.cfg.Confidence, dataset)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AnalysisService) prepare(ctx context.Context) (*abtest.VariationComparator, abtest.Dataset, error) {
	dataset, err := s.reader.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.log.Debug("loaded %d observation rows (%d categories, %d variations)",
		len(dataset), len(dataset.Categories()), len(dataset.Variations()))

	comparator, err := abtest.NewVariationComparator(
		dataset,
		s.cfg.Confidence,
		s.cfg.CategoryColumn,
		s.cfg.PrintSignificance,
		abtest.WithMissingFill(s.cfg.MissingFill),
	)
	if err != nil {
		return nil, nil, err
	}
	return comparator, dataset, nil
}

func (s *AnalysisService) chartPath(kind string, runID core.RunID) string {
	return filepath.Join(s.paths.OutputDir, fmt.Sprintf("%s_%s.png", kind, runID))
}
