package testkit

import (
	"fmt"
	"math/rand"

	"abanalyzer/domain/abtest"
)

// TwoVariationCategory builds the rows of a single category measured under
// a control and a treatment arm.
func TwoVariationCategory(category string, p0 float64, n0 int64, p1 float64, n1 int64) abtest.Dataset {
	return abtest.Dataset{
		{Category: category, Probability: p0, Population: n0, Variation: "control"},
		{Category: category, Probability: p1, Population: n1, Variation: "treatment"},
	}
}

// Dataset generates a deterministic dataset covering every (category,
// variation) pair, seeded so tests can rely on exact values.
func Dataset(categories, variations []string, seed int64) abtest.Dataset {
	rng := rand.New(rand.NewSource(seed))
	var out abtest.Dataset
	for _, variation := range variations {
		for _, category := range categories {
			out = append(out, abtest.Observation{
				Category:    category,
				Probability: 0.05 + 0.2*rng.Float64(),
				Population:  500 + rng.Int63n(1500),
				Variation:   variation,
			})
		}
	}
	return out
}

// Categories produces n generated category labels.
func Categories(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("category_%02d", i)
	}
	return out
}
