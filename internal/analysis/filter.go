package analysis

import (
	"fmt"
	"slices"
	"time"

	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/models"
)

// Filter selects the rows of one location whose dates fall in the inclusive
// year range, clamped to the dataset's own date span. display is resolved
// through the catalog; unknown names are used as canonical names.
func Filter(ds *dataset.Dataset, display string, yearStart, yearEnd int) (models.FilteredSeries, error) {
	catalog := ds.Catalog()
	canonical := catalog.Canonical(display)

	start := time.Date(yearStart, time.January, 1, 0, 0, 0, 0, time.UTC)
	if ds.MinDate().After(start) {
		start = ds.MinDate()
	}
	end := time.Date(yearEnd, time.December, 31, 0, 0, 0, 0, time.UTC)
	if ds.MaxDate().Before(end) {
		end = ds.MaxDate()
	}

	series := models.FilteredSeries{
		Location: canonical,
		Display:  catalog.Display(canonical),
		Start:    start,
		End:      end,
	}

	for _, rec := range ds.Records(canonical) {
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		series.Records = append(series.Records, rec)
	}
	if len(series.Records) == 0 {
		return series, fmt.Errorf("%w: %s %d-%d", ErrNoDataForSelection, display, yearStart, yearEnd)
	}

	slices.SortStableFunc(series.Records, func(a, b models.DailyRecord) int {
		return a.Date.Compare(b.Date)
	})
	return series, nil
}
