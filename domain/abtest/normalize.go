package abtest

import (
	"github.com/montanaflynn/stats"
)

// NormalizeMissingCategories fills in categories that exist in the dataset as
// a whole but are absent for some variation, e.g. a feature that only ever
// fired in the treatment arm. The synthesized row carries missingValue as its
// probability and the largest population already recorded for that variation
// across its other categories. The input dataset is not mutated; the deficit
// set is computed per variation and appended in one pass. Reapplying to an
// already-normalized dataset is a no-op.
func NormalizeMissingCategories(d Dataset, missingValue float64) Dataset {
	allCategories := d.Categories()
	variations := d.Variations()

	out := d.Clone()

	for _, variation := range variations {
		present := make(map[string]bool)
		var populations []float64
		for _, obs := range d {
			if obs.Variation != variation {
				continue
			}
			present[obs.Category] = true
			populations = append(populations, float64(obs.Population))
		}

		maxPopulation, err := stats.Max(populations)
		if err != nil {
			// Variation with no rows cannot occur: variations are derived
			// from the rows themselves.
			continue
		}

		for _, category := range allCategories {
			if present[category] {
				continue
			}
			out = append(out, Observation{
				Category:    category,
				Probability: missingValue,
				Population:  int64(maxPopulation),
				Variation:   variation,
			})
		}
	}

	return out
}
