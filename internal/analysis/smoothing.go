package analysis

import (
	"covid-dashboard/internal/models"
)

// Trend describes a rolling-mean configuration.
type Trend struct {
	Window     int
	Center     bool
	MinPeriods int
}

var (
	// DeathTrend smooths daily deaths over a centered week.
	DeathTrend = Trend{Window: 7, Center: true, MinPeriods: 7}
	// FatalityTrend smooths the daily case fatality ratio over a trailing month,
	// accepting partially filled windows.
	FatalityTrend = Trend{Window: 30, Center: false, MinPeriods: 7}
)

func (t Trend) Apply(points []models.Point) []models.Point {
	return RollingMean(points, t.Window, t.Center, t.MinPeriods)
}

// RollingMean averages the valid values in a window of positions around each
// point. A centered window covers [i-(w-1-(w-1)/2), i+(w-1)/2]; a trailing
// window covers [i-w+1, i]. Positions with fewer than minPeriods valid samples
// are unknown. minPeriods <= 0 means the full window is required.
func RollingMean(points []models.Point, window int, center bool, minPeriods int) []models.Point {
	if window < 1 {
		window = 1
	}
	if minPeriods <= 0 || minPeriods > window {
		minPeriods = window
	}

	ahead := 0
	if center {
		ahead = (window - 1) / 2
	}
	behind := window - 1 - ahead

	out := make([]models.Point, len(points))
	for i := range points {
		out[i].Date = points[i].Date

		lo, hi := i-behind, i+ahead
		if lo < 0 {
			lo = 0
		}
		if hi > len(points)-1 {
			hi = len(points) - 1
		}

		sum, count := 0.0, 0
		for j := lo; j <= hi; j++ {
			if points[j].Value.Valid {
				sum += points[j].Value.Value
				count++
			}
		}
		if count >= minPeriods {
			out[i].Value = models.Known(sum / float64(count))
		}
	}
	return out
}

// FieldPoints projects one column of records into dated points.
func FieldPoints(records []models.DailyRecord, field models.Field) []models.Point {
	points := make([]models.Point, len(records))
	for i, rec := range records {
		points[i] = models.Point{Date: rec.Date, Value: rec.Get(field)}
	}
	return points
}

// DailyCFR is new_deaths/new_cases per day, unknown where new_cases <= 0.
func DailyCFR(records []models.DailyRecord) []models.Point {
	points := make([]models.Point, len(records))
	for i, rec := range records {
		points[i].Date = rec.Date
		if cases := rec.NewCases.OrZero(); cases > 0 {
			points[i].Value = models.Known(rec.NewDeaths.OrZero() / cases)
		}
	}
	return points
}

// VaccinationProgress scales people_vaccinated to a percentage of its own
// maximum in records. It is a relative measure, not population coverage.
func VaccinationProgress(records []models.DailyRecord) []models.Point {
	peak := 0.0
	for _, rec := range records {
		if v := rec.PeopleVaccinated.OrZero(); v > peak {
			peak = v
		}
	}

	points := make([]models.Point, len(records))
	for i, rec := range records {
		points[i].Date = rec.Date
		if peak > 0 {
			points[i].Value = models.Known(rec.PeopleVaccinated.OrZero() / peak * 100)
		} else {
			points[i].Value = models.Known(0)
		}
	}
	return points
}

// Scale multiplies every known value by factor.
func Scale(points []models.Point, factor float64) []models.Point {
	out := make([]models.Point, len(points))
	for i, p := range points {
		out[i] = p
		if p.Value.Valid {
			out[i].Value = models.Known(p.Value.Value * factor)
		}
	}
	return out
}
