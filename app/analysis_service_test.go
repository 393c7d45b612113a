package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
	"abanalyzer/internal/config"
	"abanalyzer/internal/report"
	"abanalyzer/internal/testkit"
	"abanalyzer/ports"
)

type staticReader struct {
	dataset abtest.Dataset
	err     error
}

func (r *staticReader) Read(ctx context.Context) (abtest.Dataset, error) {
	return r.dataset, r.err
}

type recordingRenderer struct {
	differences []abtest.DifferenceTable
	magnitudes  []abtest.MagnitudeTable
	options     []ports.RenderOptions
	err         error
}

func (r *recordingRenderer) RenderDifference(table abtest.DifferenceTable, opts ports.RenderOptions) error {
	r.differences = append(r.differences, table)
	r.options = append(r.options, opts)
	return r.err
}

func (r *recordingRenderer) RenderMagnitude(table abtest.MagnitudeTable, opts ports.RenderOptions) error {
	r.magnitudes = append(r.magnitudes, table)
	r.options = append(r.options, opts)
	return r.err
}

func newTestService(t *testing.T, reader ports.ObservationReader, renderer ports.ChartRenderer) *AnalysisService {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AnalysisConfig{
		Confidence:        0.95,
		CategoryColumn:    "module",
		PrintSignificance: true,
	}
	return NewAnalysisService(reader, renderer, report.NewWriter(dir, false), cfg, &config.PathConfig{OutputDir: dir})
}

func TestRunChange(t *testing.T) {
	dataset := testkit.TwoVariationCategory("checkout", 0.10, 1000, 0.12, 1000)
	renderer := &recordingRenderer{}
	service := newTestService(t, &staticReader{dataset: dataset}, renderer)

	result, err := service.RunChange(context.Background(), "uplift", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(renderer.differences) != 1 {
		t.Fatalf("expected one difference render, got %d", len(renderer.differences))
	}
	table := renderer.differences[0]
	if table.Title != "uplift" || len(table.Rows) != 1 {
		t.Errorf("unexpected table handed to renderer: %+v", table)
	}
	if renderer.options[0].YLabel != "Difference" {
		t.Errorf("ylabel = %q, want Difference", renderer.options[0].YLabel)
	}

	if result.Categories != 1 || result.ChartPath == "" || result.ReportPath == "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunChange_PinnedRunID(t *testing.T) {
	dataset := testkit.TwoVariationCategory("checkout", 0.10, 1000, 0.12, 1000)
	service := newTestService(t, &staticReader{dataset: dataset}, &recordingRenderer{})

	pinned, err := core.ParseRunID("nightly-uplift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service = service.WithRunID(pinned)

	result, err := service.RunChange(context.Background(), "uplift", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID != pinned {
		t.Errorf("run ID = %q, want %q", result.RunID, pinned)
	}
	if !strings.Contains(result.ChartPath, pinned.String()) {
		t.Errorf("chart path %q should carry the pinned run ID", result.ChartPath)
	}
	if !strings.Contains(result.ReportPath, pinned.String()) {
		t.Errorf("report path %q should carry the pinned run ID", result.ReportPath)
	}
}

func TestRunChange_RenderFailureIsNotFatal(t *testing.T) {
	dataset := testkit.TwoVariationCategory("checkout", 0.10, 1000, 0.12, 1000)
	renderer := &recordingRenderer{err: errors.New("no display")}
	service := newTestService(t, &staticReader{dataset: dataset}, renderer)

	result, err := service.RunChange(context.Background(), "uplift", nil, nil)
	if err != nil {
		t.Fatalf("render failure should not fail the run: %v", err)
	}
	if result.ChartPath != "" {
		t.Errorf("expected no chart artifact after a render failure, got %q", result.ChartPath)
	}
	if result.ReportPath == "" {
		t.Error("report should still be written")
	}
}

func TestRunChange_ReaderFailure(t *testing.T) {
	renderer := &recordingRenderer{}
	service := newTestService(t, &staticReader{err: errors.New("connection refused")}, renderer)

	if _, err := service.RunChange(context.Background(), "uplift", nil, nil); err == nil {
		t.Fatal("expected the reader error to propagate")
	}
	if len(renderer.differences) != 0 {
		t.Error("nothing should be rendered when reading fails")
	}
}

func TestRunMagnitude(t *testing.T) {
	dataset := testkit.Dataset(testkit.Categories(3), []string{"control", "treatment"}, 42)
	renderer := &recordingRenderer{}
	service := newTestService(t, &staticReader{dataset: dataset}, renderer)

	result, err := service.RunMagnitude(context.Background(), "raw rates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(renderer.magnitudes) != 1 {
		t.Fatalf("expected one magnitude render, got %d", len(renderer.magnitudes))
	}
	if got := len(renderer.magnitudes[0].Rows); got != 6 {
		t.Errorf("expected 6 magnitude rows, got %d", got)
	}
	if renderer.options[0].YLabel != "Magnitude" {
		t.Errorf("ylabel = %q, want Magnitude", renderer.options[0].YLabel)
	}
	if result.Categories != 3 {
		t.Errorf("categories = %d, want 3", result.Categories)
	}
}
