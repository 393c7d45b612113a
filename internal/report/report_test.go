package report

import (
	"os"
	"strings"
	"testing"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
)

func sampleDataset() abtest.Dataset {
	return abtest.Dataset{
		{Category: "checkout", Probability: 0.10, Population: 1000, Variation: "control"},
		{Category: "checkout", Probability: 0.12, Population: 1000, Variation: "treatment"},
	}
}

func TestWriteChange(t *testing.T) {
	writer := NewWriter(t.TempDir(), true)
	table := abtest.DifferenceTable{
		Title:           "conversion uplift",
		CategoryLabel:   "module",
		VariationOrder:  [2]string{"control", "treatment"},
		HasSignificance: true,
		Rows: []abtest.DifferenceRow{
			{Category: "checkout", Mean: 0.02, ConfidenceRadius: 0.0274, Significance: 0.8471},
		},
	}

	mdPath, htmlPath, err := writer.WriteChange(core.NewRunID(), table, 0.95, sampleDataset())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	content := string(md)
	for _, want := range []string{
		"# conversion uplift",
		"Significance for checkout = 0.8471",
		"| module | mean | confidence radius |",
		"| checkout | 0.020000 | 0.027400 |",
		"## Observed rates per variation",
		"| control | 1 |",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q:\n%s", want, content)
		}
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("failed to read HTML report: %v", err)
	}
	if !strings.Contains(string(html), "<h1") {
		t.Errorf("HTML report did not render headings:\n%s", html)
	}
}

func TestWriteChange_NoSignificanceSection(t *testing.T) {
	writer := NewWriter(t.TempDir(), false)
	table := abtest.DifferenceTable{
		Title:          "quiet run",
		CategoryLabel:  "module",
		VariationOrder: [2]string{"control", "treatment"},
		Rows: []abtest.DifferenceRow{
			{Category: "checkout", Mean: 0.02, ConfidenceRadius: 0.0274},
		},
	}

	mdPath, htmlPath, err := writer.WriteChange(core.NewRunID(), table, 0.95, sampleDataset())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if htmlPath != "" {
		t.Errorf("expected no HTML artifact, got %s", htmlPath)
	}

	md, _ := os.ReadFile(mdPath)
	if strings.Contains(string(md), "## Significance") {
		t.Error("significance section present despite the flag being off")
	}
}

func TestWriteMagnitude(t *testing.T) {
	writer := NewWriter(t.TempDir(), false)
	table := abtest.MagnitudeTable{
		Title:         "raw rates",
		CategoryLabel: "module",
		Variations:    []string{"control", "treatment"},
		Rows: []abtest.MagnitudeRow{
			{Variation: "control", Category: "checkout", Mean: 0.10, ConfidenceRadius: 0.0186},
			{Variation: "treatment", Category: "checkout", Mean: 0.12, ConfidenceRadius: 0.0201},
		},
	}

	mdPath, _, err := writer.WriteMagnitude(core.NewRunID(), table, 0.95, sampleDataset())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md, _ := os.ReadFile(mdPath)
	content := string(md)
	for _, want := range []string{
		"# raw rates",
		"control, treatment",
		"| control | checkout | 0.100000 | 0.018600 |",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q:\n%s", want, content)
		}
	}
}
