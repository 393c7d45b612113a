package ports

import (
	"context"

	"abanalyzer/domain/abtest"
)

// ObservationReader loads observation rows from some tabular source: a
// spreadsheet, a CSV export, or a warehouse query. Readers validate the
// required columns once at the boundary.
type ObservationReader interface {
	Read(ctx context.Context) (abtest.Dataset, error)
}
