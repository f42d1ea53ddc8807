package dataset

import (
	"slices"
	"time"

	"covid-dashboard/internal/models"
)

// Dataset is the immutable, allow-listed record set loaded once per process.
// Callers must not modify the slices it returns.
type Dataset struct {
	byLocation map[string][]models.DailyRecord
	catalog    *Catalog
	minDate    time.Time
	maxDate    time.Time
	maxYear    int
	rows       int
	duplicates int
}

// New builds a Dataset from decoded records. Rows outside allow are dropped,
// duplicate (location, date) rows keep the last occurrence, and each
// location's rows are sorted by date.
func New(records []models.DailyRecord, allow AllowList, maxYear int) *Dataset {
	type key struct {
		location string
		date     time.Time
	}

	positions := make(map[key]int, len(records))
	byLocation := make(map[string][]models.DailyRecord)
	ds := &Dataset{maxYear: maxYear}

	for _, rec := range records {
		if !allow.Allows(rec.Location) {
			continue
		}
		k := key{rec.Location, rec.Date}
		if i, dup := positions[k]; dup {
			byLocation[rec.Location][i] = rec
			ds.duplicates++
			continue
		}
		positions[k] = len(byLocation[rec.Location])
		byLocation[rec.Location] = append(byLocation[rec.Location], rec)
	}

	present := make(map[string]bool, len(byLocation))
	for location, rows := range byLocation {
		slices.SortStableFunc(rows, func(a, b models.DailyRecord) int {
			return a.Date.Compare(b.Date)
		})
		present[location] = true
		ds.rows += len(rows)

		first, last := rows[0].Date, rows[len(rows)-1].Date
		if ds.minDate.IsZero() || first.Before(ds.minDate) {
			ds.minDate = first
		}
		if last.After(ds.maxDate) {
			ds.maxDate = last
		}
	}

	ds.byLocation = byLocation
	ds.catalog = NewCatalog(allow, present)
	return ds
}

func (d *Dataset) Catalog() *Catalog {
	return d.catalog
}

// Records returns the rows of a canonical location, ascending by date.
func (d *Dataset) Records(canonical string) []models.DailyRecord {
	return d.byLocation[canonical]
}

func (d *Dataset) MinDate() time.Time {
	return d.minDate
}

func (d *Dataset) MaxDate() time.Time {
	return d.maxDate
}

// Rows is the total number of kept records.
func (d *Dataset) Rows() int {
	return d.rows
}

// Duplicates counts rows replaced by a later row with the same key.
func (d *Dataset) Duplicates() int {
	return d.duplicates
}

func (d *Dataset) Locations() int {
	return len(d.byLocation)
}

// SelectableYears lists the observed years up to the configured maximum.
func (d *Dataset) SelectableYears() []int {
	if d.rows == 0 {
		return nil
	}
	var years []int
	for y := d.minDate.Year(); y <= d.maxDate.Year(); y++ {
		if d.maxYear > 0 && y > d.maxYear {
			break
		}
		if d.hasYear(y) {
			years = append(years, y)
		}
	}
	return years
}

func (d *Dataset) hasYear(year int) bool {
	for _, rows := range d.byLocation {
		i, _ := slices.BinarySearchFunc(rows, year, func(r models.DailyRecord, y int) int {
			return r.Date.Year() - y
		})
		if i < len(rows) && rows[i].Date.Year() == year {
			return true
		}
	}
	return false
}
