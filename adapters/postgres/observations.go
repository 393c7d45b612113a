package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
)

// ObservationStore runs warehouse queries that produce observation rows.
// Any query whose result set carries the category column plus p, population
// and variation satisfies the input shape.
type ObservationStore struct {
	db             *sqlx.DB
	query          string
	categoryColumn string
}

// NewObservationStore creates a reader backed by a warehouse query.
func NewObservationStore(db *sqlx.DB, query, categoryColumn string) *ObservationStore {
	return &ObservationStore{db: db, query: query, categoryColumn: categoryColumn}
}

// Read executes the query and scans the result set into a dataset. Column
// presence is validated once against the result set's header.
func (s *ObservationStore) Read(ctx context.Context) (abtest.Dataset, error) {
	rows, err := s.db.QueryxContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("observation query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect result columns: %w", err)
	}
	present := make(map[string]bool, len(columns))
	for _, name := range columns {
		present[name] = true
	}
	for _, name := range []string{s.categoryColumn, "p", "population", "variation"} {
		if !present[name] {
			return nil, core.NewMissingColumnError(name)
		}
	}

	var dataset abtest.Dataset
	for rows.Next() {
		record := map[string]interface{}{}
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}

		obs, err := s.observationFromRecord(record)
		if err != nil {
			return nil, err
		}
		dataset = append(dataset, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("observation query iteration failed: %w", err)
	}
	return dataset, nil
}

func (s *ObservationStore) observationFromRecord(record map[string]interface{}) (abtest.Observation, error) {
	category, err := stringValue(record[s.categoryColumn])
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("column %q: %w", s.categoryColumn, err)
	}
	variation, err := stringValue(record["variation"])
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("column \"variation\": %w", err)
	}
	probability, err := floatValue(record["p"])
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("column \"p\": %w", err)
	}
	population, err := intValue(record["population"])
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("column \"population\": %w", err)
	}

	return abtest.Observation{
		Category:    category,
		Probability: probability,
		Population:  population,
		Variation:   variation,
	}, nil
}

// Drivers hand back text columns as []byte and numerics in several widths;
// coerce the handful of shapes lib/pq produces.
func stringValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	default:
		return "", fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}

func floatValue(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(val), "%g", &f); err != nil {
			return 0, fmt.Errorf("unexpected numeric text %q", string(val))
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}

func intValue(v interface{}) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case []byte:
		var n int64
		if _, err := fmt.Sscanf(string(val), "%d", &n); err != nil {
			return 0, fmt.Errorf("unexpected integer text %q", string(val))
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}
