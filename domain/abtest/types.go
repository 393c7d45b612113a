package abtest

// Observation is one aggregated binomial rate for a single category under a
// single variation: probability of the event and the population it was
// measured over.
type Observation struct {
	Category    string
	Probability float64
	Population  int64
	Variation   string
}

// Dataset is an ordered collection of observations. Order matters: analyses
// iterate categories and variations in first-appearance order.
type Dataset []Observation

// Categories returns the distinct category labels in first-appearance order.
func (d Dataset) Categories() []string {
	seen := make(map[string]bool, len(d))
	var out []string
	for _, obs := range d {
		if !seen[obs.Category] {
			seen[obs.Category] = true
			out = append(out, obs.Category)
		}
	}
	return out
}

// Variations returns the distinct variation labels in first-appearance order.
func (d Dataset) Variations() []string {
	seen := make(map[string]bool, len(d))
	var out []string
	for _, obs := range d {
		if !seen[obs.Variation] {
			seen[obs.Variation] = true
			out = append(out, obs.Variation)
		}
	}
	return out
}

// ForCategory returns the observations belonging to one category, preserving
// dataset order.
func (d Dataset) ForCategory(category string) Dataset {
	var out Dataset
	for _, obs := range d {
		if obs.Category == category {
			out = append(out, obs)
		}
	}
	return out
}

// Clone returns an independent copy of the dataset.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}

// Estimate is a point estimate plus the symmetric half-width of its
// confidence interval.
type Estimate struct {
	Value            float64
	ConfidenceRadius float64
}

// DifferenceRow is one category's estimated difference between the two
// variations. Significance is only meaningful when the owning table's
// HasSignificance is set.
type DifferenceRow struct {
	Category         string
	Mean             float64
	ConfidenceRadius float64
	Significance     float64
}

// DifferenceTable is the output of a change analysis: one row per category.
type DifferenceTable struct {
	Title           string
	CategoryLabel   string
	VariationOrder  [2]string
	HasSignificance bool
	Rows            []DifferenceRow
}

// MagnitudeRow is the estimated raw rate for one (variation, category) pair.
type MagnitudeRow struct {
	Variation        string
	Category         string
	Mean             float64
	ConfidenceRadius float64
}

// MagnitudeTable is the output of a magnitude analysis: one row per
// (variation, category) pair, grouped by category in dataset order.
type MagnitudeTable struct {
	Title         string
	CategoryLabel string
	Variations    []string
	Rows          []MagnitudeRow
}
