package abtest

import (
	"reflect"
	"testing"
)

func TestNormalizeMissingCategories(t *testing.T) {
	dataset := Dataset{
		{Category: "checkout", Probability: 0.10, Population: 1000, Variation: "control"},
		{Category: "search", Probability: 0.30, Population: 1500, Variation: "control"},
		{Category: "checkout", Probability: 0.12, Population: 1200, Variation: "treatment"},
		{Category: "new_feature", Probability: 0.05, Population: 900, Variation: "treatment"},
	}

	t.Run("fills the deficit set per variation", func(t *testing.T) {
		normalized := NormalizeMissingCategories(dataset, 0)

		// control gains new_feature, treatment gains search.
		if len(normalized) != 6 {
			t.Fatalf("expected 6 rows, got %d", len(normalized))
		}

		var controlFill, treatmentFill *Observation
		for i := range normalized {
			obs := normalized[i]
			if obs.Variation == "control" && obs.Category == "new_feature" {
				controlFill = &normalized[i]
			}
			if obs.Variation == "treatment" && obs.Category == "search" {
				treatmentFill = &normalized[i]
			}
		}
		if controlFill == nil || treatmentFill == nil {
			t.Fatalf("missing synthesized rows in %+v", normalized)
		}

		if controlFill.Probability != 0 {
			t.Errorf("control fill probability = %v, want 0", controlFill.Probability)
		}
		// Max population already recorded for control across its categories.
		if controlFill.Population != 1500 {
			t.Errorf("control fill population = %d, want 1500", controlFill.Population)
		}
		if treatmentFill.Population != 1200 {
			t.Errorf("treatment fill population = %d, want 1200", treatmentFill.Population)
		}
	})

	t.Run("honors the configured fill value", func(t *testing.T) {
		normalized := NormalizeMissingCategories(dataset, 0.01)
		for _, obs := range normalized[len(dataset):] {
			if obs.Probability != 0.01 {
				t.Errorf("fill probability = %v, want 0.01", obs.Probability)
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once := NormalizeMissingCategories(dataset, 0)
		twice := NormalizeMissingCategories(once, 0)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("normalization is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		before := dataset.Clone()
		_ = NormalizeMissingCategories(dataset, 0)
		if !reflect.DeepEqual(before, dataset) {
			t.Error("input dataset was mutated")
		}
	})
}
