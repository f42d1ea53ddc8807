package analysis

import (
	"time"

	"covid-dashboard/internal/models"
)

// LatestValid returns the chronologically last known, strictly positive value
// of field, truncated to an integer. It is 0 when no such row exists.
func LatestValid(records []models.DailyRecord, field models.Field) int64 {
	for i := len(records) - 1; i >= 0; i-- {
		m := records[i].Get(field)
		if m.Valid && m.Value > 0 {
			return int64(m.Value)
		}
	}
	return 0
}

func Headline(records []models.DailyRecord) models.Headline {
	return models.Headline{
		TotalCases:       LatestValid(records, models.FieldTotalCases),
		TotalDeaths:      LatestValid(records, models.FieldTotalDeaths),
		PeopleVaccinated: LatestValid(records, models.FieldPeopleVaccinated),
	}
}

// VaccinationStart is the earliest date with people_vaccinated > 0.
func VaccinationStart(records []models.DailyRecord) (time.Time, bool) {
	var start time.Time
	found := false
	for _, rec := range records {
		if rec.PeopleVaccinated.OrZero() <= 0 {
			continue
		}
		if !found || rec.Date.Before(start) {
			start = rec.Date
			found = true
		}
	}
	return start, found
}

// DailySeries flattens records into chart-ready points.
func DailySeries(records []models.DailyRecord) []models.DailyPoint {
	points := make([]models.DailyPoint, len(records))
	for i, rec := range records {
		points[i] = models.DailyPoint{
			Date:             rec.Date,
			NewCases:         rec.NewCases.OrZero(),
			NewDeaths:        rec.NewDeaths.OrZero(),
			TotalDeaths:      rec.TotalDeaths.OrZero(),
			PeopleVaccinated: rec.PeopleVaccinated.OrZero(),
		}
	}
	return points
}
