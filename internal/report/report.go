package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/montanaflynn/stats"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
)

// Writer collects one analysis run into a markdown artifact, optionally
// rendered to HTML alongside it. The report carries what the interactive
// output prints: significance per category, the result table, and a
// descriptive summary of the raw rates per variation.
type Writer struct {
	outputDir string
	withHTML  bool
}

// NewWriter creates a report writer targeting outputDir.
func NewWriter(outputDir string, withHTML bool) *Writer {
	return &Writer{outputDir: outputDir, withHTML: withHTML}
}

// WriteChange writes the change-analysis report. Returns the markdown path
// and, when HTML output is on, the HTML path.
func (w *Writer) WriteChange(runID core.RunID, table abtest.DifferenceTable, confidence float64, dataset abtest.Dataset) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", table.Title)
	fmt.Fprintf(&b, "Change analysis at %.0f%% confidence, %s vs. %s.\n\n",
		confidence*100, table.VariationOrder[1], table.VariationOrder[0])

	if table.HasSignificance {
		b.WriteString("## Significance\n\n")
		for _, row := range table.Rows {
			fmt.Fprintf(&b, "- Significance for %s = %v\n", row.Category, row.Significance)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Differences\n\n")
	fmt.Fprintf(&b, "| %s | mean | confidence radius |\n", table.CategoryLabel)
	b.WriteString("| --- | --- | --- |\n")
	for _, row := range table.Rows {
		fmt.Fprintf(&b, "| %s | %.6f | %.6f |\n", row.Category, row.Mean, row.ConfidenceRadius)
	}
	b.WriteString("\n")

	writeVariationSummary(&b, dataset)
	return w.write(runID, "change", b.String())
}

// WriteMagnitude writes the magnitude-analysis report.
func (w *Writer) WriteMagnitude(runID core.RunID, table abtest.MagnitudeTable, confidence float64, dataset abtest.Dataset) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", table.Title)
	fmt.Fprintf(&b, "Magnitude analysis at %.0f%% confidence across variations: %s.\n\n",
		confidence*100, strings.Join(table.Variations, ", "))

	b.WriteString("## Magnitudes\n\n")
	fmt.Fprintf(&b, "| variation | %s | mean | confidence radius |\n", table.CategoryLabel)
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, row := range table.Rows {
		fmt.Fprintf(&b, "| %s | %s | %.6f | %.6f |\n", row.Variation, row.Category, row.Mean, row.ConfidenceRadius)
	}
	b.WriteString("\n")

	writeVariationSummary(&b, dataset)
	return w.write(runID, "magnitude", b.String())
}

// writeVariationSummary appends descriptive statistics of the observed rates
// per variation, so the report shows what magnitudes the test dealt with.
func writeVariationSummary(b *strings.Builder, dataset abtest.Dataset) {
	b.WriteString("## Observed rates per variation\n\n")
	b.WriteString("| variation | categories | mean p | min p | max p |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, variation := range dataset.Variations() {
		var ps []float64
		for _, obs := range dataset {
			if obs.Variation == variation {
				ps = append(ps, obs.Probability)
			}
		}
		mean, _ := stats.Mean(ps)
		min, _ := stats.Min(ps)
		max, _ := stats.Max(ps)
		fmt.Fprintf(b, "| %s | %d | %.6f | %.6f | %.6f |\n", variation, len(ps), mean, min, max)
	}
}

func (w *Writer) write(runID core.RunID, kind, content string) (string, string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create report directory: %w", err)
	}

	mdPath := filepath.Join(w.outputDir, fmt.Sprintf("%s_report_%s.md", kind, runID))
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write report: %w", err)
	}

	if !w.withHTML {
		return mdPath, "", nil
	}

	htmlPath := filepath.Join(w.outputDir, fmt.Sprintf("%s_report_%s.html", kind, runID))
	html := markdown.ToHTML([]byte(content), nil, nil)
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write HTML report: %w", err)
	}
	return mdPath, htmlPath, nil
}
