package plot

import (
	"os"
	"path/filepath"
	"testing"

	"abanalyzer/domain/abtest"
	"abanalyzer/ports"
)

func TestRenderDifference(t *testing.T) {
	table := abtest.DifferenceTable{
		Title:          "conversion uplift",
		CategoryLabel:  "module",
		VariationOrder: [2]string{"control", "treatment"},
		Rows: []abtest.DifferenceRow{
			{Category: "checkout", Mean: 0.02, ConfidenceRadius: 0.0274},
			{Category: "search", Mean: -0.01, ConfidenceRadius: 0.031},
		},
	}
	path := filepath.Join(t.TempDir(), "diff.png")

	err := NewRenderer().RenderDifference(table, ports.RenderOptions{
		YLabel:     "Difference",
		OutputPath: path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart file is empty")
	}
}

func TestRenderMagnitude(t *testing.T) {
	table := abtest.MagnitudeTable{
		Title:         "raw rates",
		CategoryLabel: "module",
		Variations:    []string{"control", "treatment"},
		Rows: []abtest.MagnitudeRow{
			{Variation: "control", Category: "checkout", Mean: 0.10, ConfidenceRadius: 0.0186},
			{Variation: "treatment", Category: "checkout", Mean: 0.12, ConfidenceRadius: 0.0201},
			{Variation: "control", Category: "search", Mean: 0.30, ConfidenceRadius: 0.03},
			{Variation: "treatment", Category: "search", Mean: 0.28, ConfidenceRadius: 0.03},
		},
	}
	path := filepath.Join(t.TempDir(), "magnitude.png")

	err := NewRenderer().RenderMagnitude(table, ports.RenderOptions{
		YLabel:     "Magnitude",
		OutputPath: path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("chart file missing: %v", err)
	}
}

func TestRenderDifference_NoOutputPath(t *testing.T) {
	table := abtest.DifferenceTable{
		Title: "uplift",
		Rows: []abtest.DifferenceRow{
			{Category: "checkout", Mean: 0.02, ConfidenceRadius: 0.0274},
		},
	}
	err := NewRenderer().RenderDifference(table, ports.RenderOptions{})
	if err == nil {
		t.Fatal("expected an error without an output path")
	}
}

func TestRenderEmptyTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")

	err := NewRenderer().RenderDifference(abtest.DifferenceTable{Title: "empty"}, ports.RenderOptions{OutputPath: path})
	if err == nil {
		t.Error("expected an error for a difference table without rows")
	}

	err = NewRenderer().RenderMagnitude(abtest.MagnitudeTable{Title: "empty"}, ports.RenderOptions{OutputPath: path})
	if err == nil {
		t.Error("expected an error for a magnitude table without rows")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("no chart file should be written for empty tables")
	}
}
