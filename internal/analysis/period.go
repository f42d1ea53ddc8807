package analysis

import (
	"fmt"
	"time"

	"covid-dashboard/internal/models"
)

// Windows splits records around pivot: before is [pivot-days, pivot) and
// after is [pivot, pivot+days], closed at the far end. Windows are never
// clipped to the data, so either may be empty.
func Windows(records []models.DailyRecord, pivot time.Time, days int) (before, after []models.DailyRecord) {
	from := pivot.AddDate(0, 0, -days)
	to := pivot.AddDate(0, 0, days)
	for _, rec := range records {
		switch {
		case !rec.Date.Before(from) && rec.Date.Before(pivot):
			before = append(before, rec)
		case !rec.Date.Before(pivot) && !rec.Date.After(to):
			after = append(after, rec)
		}
	}
	return before, after
}

// Summarize aggregates one window. An empty window yields a zero summary.
func Summarize(records []models.DailyRecord) models.PeriodSummary {
	s := models.PeriodSummary{Days: len(records)}
	if len(records) == 0 {
		return s
	}
	for _, rec := range records {
		s.CasesSum += rec.NewCases.OrZero()
		s.DeathsSum += rec.NewDeaths.OrZero()
	}
	s.CaseFatality = ratio(s.DeathsSum, s.CasesSum)
	s.MeanDailyDeaths = s.DeathsSum / float64(len(records))
	return s
}

// CompareAroundPivot contrasts the windowDays before pivot with the
// windowDays after it. It fails with ErrInsufficientData when either
// window has no rows.
func CompareAroundPivot(records []models.DailyRecord, pivot time.Time, windowDays int) (models.PeriodComparison, error) {
	before, after := Windows(records, pivot, windowDays)
	if len(before) == 0 || len(after) == 0 {
		return models.PeriodComparison{}, fmt.Errorf("%w: %d-day windows have %d and %d rows",
			ErrInsufficientData, windowDays, len(before), len(after))
	}

	b, a := Summarize(before), Summarize(after)
	return models.PeriodComparison{
		Pivot:                    pivot,
		WindowDays:               windowDays,
		Before:                   b,
		After:                    a,
		RateReductionPct:         reductionPct(b.CaseFatality, a.CaseFatality),
		MeanReductionPct:         reductionPct(b.MeanDailyDeaths, a.MeanDailyDeaths),
		CaseVolumeChangePct:      changePct(b.CasesSum, a.CasesSum),
		DeathVolumeChangePct:     changePct(b.DeathsSum, a.DeathsSum),
		CounterfactualLivesSaved: a.CasesSum*b.CaseFatality - a.DeathsSum,
		CountBasedEstimate:       (b.MeanDailyDeaths - a.MeanDailyDeaths) * float64(windowDays),
	}, nil
}

// RelativeDays positions each row of both windows by its day offset from
// pivot, carrying new_deaths, for overlaying the two periods.
func RelativeDays(records []models.DailyRecord, pivot time.Time, windowDays int) (before, after []models.RelativePoint) {
	b, a := Windows(records, pivot, windowDays)
	return relative(b, pivot), relative(a, pivot)
}

func relative(records []models.DailyRecord, pivot time.Time) []models.RelativePoint {
	points := make([]models.RelativePoint, len(records))
	for i, rec := range records {
		points[i] = models.RelativePoint{
			Day:   daysBetween(pivot, rec.Date),
			Value: rec.NewDeaths.OrZero(),
		}
	}
	return points
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(time.Hour).Hours() / 24)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// reductionPct is (before-after)/before*100, or 0 when before is not positive.
func reductionPct(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (before - after) / before * 100
}

// changePct is (after/before-1)*100, or 0 when before is not positive.
func changePct(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (after/before - 1) * 100
}
