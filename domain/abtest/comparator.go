package abtest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"abanalyzer/domain/core"
)

// VariationComparator runs pooled-variance z-tests and confidence interval
// estimates over a dataset of per-category binomial rates. It never mutates
// the dataset it was constructed with; each analysis works on its own
// normalized copy.
type VariationComparator struct {
	dataset          Dataset
	confidence       float64
	categoryLabel    string
	withSignificance bool
	missingFill      float64

	dist distuv.Normal
}

// Option configures a VariationComparator.
type Option func(*VariationComparator)

// WithMissingFill overrides the probability assigned to categories that are
// absent for a variation (default 0).
func WithMissingFill(v float64) Option {
	return func(c *VariationComparator) { c.missingFill = v }
}

// NewVariationComparator creates a comparator for the given dataset.
// confidence is the two-sided confidence level, e.g. 0.95. categoryLabel
// names the category dimension (module, page, ...) for output tables.
// withSignificance controls whether change analyses also compute and carry
// per-category significance levels.
func NewVariationComparator(dataset Dataset, confidence float64, categoryLabel string, withSignificance bool, opts ...Option) (*VariationComparator, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("%w: got %v", core.ErrInvalidConfidence, confidence)
	}
	c := &VariationComparator{
		dataset:          dataset,
		confidence:       confidence,
		categoryLabel:    categoryLabel,
		withSignificance: withSignificance,
		dist:             distuv.UnitNormal,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Confidence returns the configured confidence level.
func (c *VariationComparator) Confidence() float64 { return c.confidence }

// CategoryLabel returns the configured category dimension name.
func (c *VariationComparator) CategoryLabel() string { return c.categoryLabel }

// zQuantile is the two-sided critical value: a 95% confidence interval needs
// the z value at 97.5.
func (c *VariationComparator) zQuantile() float64 {
	a := 1 - (1-c.confidence)/2
	return c.dist.Quantile(a)
}

// pairForCategory extracts the (p, n) pair for a category's rows, keyed by
// the two expected variation labels. The first row per variation wins.
func pairForCategory(rows Dataset, category string) (map[string]Observation, error) {
	byVariation := make(map[string]Observation, 2)
	for _, obs := range rows {
		if _, ok := byVariation[obs.Variation]; !ok {
			byVariation[obs.Variation] = obs
		}
	}
	if len(byVariation) != 2 {
		return nil, core.NewUnsupportedVariationCountError(category, len(byVariation))
	}
	return byVariation, nil
}

// pooledStandardError computes the pooled rate and its standard error for a
// two-variation comparison. The pooled estimator assumes both variations
// share a true rate, which is the right variance under the null hypothesis.
func pooledStandardError(category string, o0, o1 Observation) (pHat, sHat float64, err error) {
	if o0.Population == 0 || o1.Population == 0 {
		return 0, 0, core.NewDegenerateInputError(category, "zero population makes the pooled variance undefined")
	}
	n0 := float64(o0.Population)
	n1 := float64(o1.Population)
	pHat = (n0*o0.Probability + n1*o1.Probability) / (n0 + n1)
	sHat = math.Sqrt(pHat * (1 - pHat) * (1/n0 + 1/n1))
	if sHat == 0 {
		return 0, 0, core.NewDegenerateInputError(category, "pooled variance is zero")
	}
	return pHat, sHat, nil
}

// SignificanceTest computes the pooled-variance z-test significance level for
// one category's rows, which must contain exactly two variations. The result
// is invariant to which variation comes first. When twoSided is set, the
// one-sided tail probability is rescaled so that a two-sided 95% claim needs
// the same evidence as a one-sided 97.5% claim.
func (c *VariationComparator) SignificanceTest(rows Dataset, twoSided bool) (float64, error) {
	category := ""
	if len(rows) > 0 {
		category = rows[0].Category
	}
	byVariation, err := pairForCategory(rows, category)
	if err != nil {
		return 0, err
	}

	order := rows.Variations()
	o0, o1 := byVariation[order[0]], byVariation[order[1]]

	_, sHat, err := pooledStandardError(category, o0, o1)
	if err != nil {
		return 0, err
	}

	z := math.Abs(o0.Probability-o1.Probability) / sHat
	significance := c.dist.CDF(z)
	if twoSided {
		significance = 1 - (1-significance)*2
	}
	return significance, nil
}

// DifferenceMeansAndCIs estimates p1 - p0 for one category with a confidence
// radius derived from the pooled standard error, matching the variance used
// by SignificanceTest.
func (c *VariationComparator) DifferenceMeansAndCIs(rows Dataset, variationOrder [2]string) (Estimate, error) {
	category := ""
	if len(rows) > 0 {
		category = rows[0].Category
	}
	byVariation, err := pairForCategory(rows, category)
	if err != nil {
		return Estimate{}, err
	}
	o0, ok0 := byVariation[variationOrder[0]]
	o1, ok1 := byVariation[variationOrder[1]]
	if !ok0 || !ok1 {
		return Estimate{}, core.NewUnsupportedVariationCountError(category, len(byVariation))
	}

	_, sHat, err := pooledStandardError(category, o0, o1)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		Value:            o1.Probability - o0.Probability,
		ConfidenceRadius: c.zQuantile() * sHat,
	}, nil
}

// MeansAndCIs estimates the raw rate per variation for one category, each
// with a single-proportion Wald confidence radius. No pooling happens here.
func (c *VariationComparator) MeansAndCIs(rows Dataset, variations []string) (map[string]Estimate, error) {
	category := ""
	if len(rows) > 0 {
		category = rows[0].Category
	}

	byVariation := make(map[string]Observation, len(variations))
	for _, obs := range rows {
		if _, ok := byVariation[obs.Variation]; !ok {
			byVariation[obs.Variation] = obs
		}
	}

	estimates := make(map[string]Estimate, len(variations))
	for _, variation := range variations {
		obs, ok := byVariation[variation]
		if !ok {
			return nil, core.NewDegenerateInputError(category, fmt.Sprintf("no row for variation %q", variation))
		}
		if obs.Population == 0 {
			return nil, core.NewDegenerateInputError(category, "zero population makes the standard error undefined")
		}
		p := obs.Probability
		n := float64(obs.Population)
		sHat := math.Sqrt(p * (1 - p) / n)
		estimates[variation] = Estimate{
			Value:            p,
			ConfidenceRadius: c.zQuantile() * sHat,
		}
	}
	return estimates, nil
}

// ChangeAnalysis runs the per-category difference estimates over a normalized
// copy of the dataset and collects them into a table. Requires exactly two
// variations. If a category fails, the rows accumulated before it are
// returned alongside the error.
func (c *VariationComparator) ChangeAnalysis(title string) (DifferenceTable, error) {
	normalized := NormalizeMissingCategories(c.dataset, c.missingFill)

	variations := normalized.Variations()
	table := DifferenceTable{
		Title:           title,
		CategoryLabel:   c.categoryLabel,
		HasSignificance: c.withSignificance,
	}
	if len(variations) != 2 {
		return table, core.NewUnsupportedVariationCountError("", len(variations))
	}
	order := [2]string{variations[0], variations[1]}
	table.VariationOrder = order

	for _, category := range normalized.Categories() {
		rows := normalized.ForCategory(category)

		row := DifferenceRow{Category: category}
		if c.withSignificance {
			significance, err := c.SignificanceTest(rows, true)
			if err != nil {
				return table, err
			}
			row.Significance = significance
		}

		estimate, err := c.DifferenceMeansAndCIs(rows, order)
		if err != nil {
			return table, err
		}
		row.Mean = estimate.Value
		row.ConfidenceRadius = estimate.ConfidenceRadius
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// MagnitudeAnalysis runs per-category, per-variation Wald estimates over a
// normalized copy of the dataset and flattens them into a table grouped by
// category. Works for any number of variations.
func (c *VariationComparator) MagnitudeAnalysis(title string) (MagnitudeTable, error) {
	normalized := NormalizeMissingCategories(c.dataset, c.missingFill)

	variations := normalized.Variations()
	table := MagnitudeTable{
		Title:         title,
		CategoryLabel: c.categoryLabel,
		Variations:    variations,
	}

	for _, category := range normalized.Categories() {
		rows := normalized.ForCategory(category)

		estimates, err := c.MeansAndCIs(rows, variations)
		if err != nil {
			return table, err
		}
		for _, variation := range variations {
			estimate := estimates[variation]
			table.Rows = append(table.Rows, MagnitudeRow{
				Variation:        variation,
				Category:         category,
				Mean:             estimate.Value,
				ConfidenceRadius: estimate.ConfidenceRadius,
			})
		}
	}

	return table, nil
}
