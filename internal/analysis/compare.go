package analysis

import (
	"slices"

	"golang.org/x/sync/errgroup"

	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/models"
)

const compareWorkers = 4

// CompareLocations summarizes every non-aggregate location of the catalog
// that has a vaccination start. Rows are ordered by start date, ties by
// catalog order.
func CompareLocations(ds *dataset.Dataset, windowDays int) []models.LocationRow {
	catalog := ds.Catalog()
	names := catalog.Names()

	slots := make([]*models.LocationRow, len(names))
	var g errgroup.Group
	g.SetLimit(compareWorkers)
	for i, display := range names {
		canonical := catalog.Canonical(display)
		if catalog.IsAggregate(canonical) {
			continue
		}
		g.Go(func() error {
			row, ok := SummarizeLocation(ds.Records(canonical), windowDays)
			if ok {
				row.Location = canonical
				row.Display = display
				slots[i] = &row
			}
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]models.LocationRow, 0, len(slots))
	for _, row := range slots {
		if row != nil {
			rows = append(rows, *row)
		}
	}

	slices.SortStableFunc(rows, func(a, b models.LocationRow) int {
		if c := a.VaccinationStart.Compare(b.VaccinationStart); c != 0 {
			return c
		}
		return catalog.Position(a.Display) - catalog.Position(b.Display)
	})
	return rows
}

// SummarizeLocation computes one comparison row from a location's records,
// ascending by date. ok is false when the location never reports vaccinations.
func SummarizeLocation(records []models.DailyRecord, windowDays int) (row models.LocationRow, ok bool) {
	start, ok := VaccinationStart(records)
	if !ok {
		return models.LocationRow{}, false
	}
	row.VaccinationStart = start

	end := start.AddDate(0, 0, windowDays)
	var before, total float64
	var post []float64
	for _, rec := range records {
		deaths := rec.TotalDeaths.OrZero()
		total = max(total, deaths)
		switch {
		case rec.Date.Before(start):
			before = max(before, deaths)
		case !rec.Date.After(end):
			post = append(post, deaths)
		}
	}

	row.DeathsBeforeStart = int64(before)
	row.TotalDeaths = int64(total)
	if len(post) > 0 {
		row.DailyRatePost = (slices.Max(post) - post[0]) / float64(len(post))
	}
	return row, true
}
