package analysis

import (
	"fmt"

	"covid-dashboard/internal/models"
)

// DelayLimit is how many earlier starters AnalyzeDelay reports by default.
const DelayLimit = 5

// AnalyzeDelay measures how many days after the earlier starters the focus
// location began vaccinating. rows must be ordered as CompareLocations
// returns them.
func AnalyzeDelay(rows []models.LocationRow, focus string, limit int) (models.DelayReport, error) {
	var target *models.LocationRow
	for i := range rows {
		if rows[i].Display == focus {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return models.DelayReport{}, fmt.Errorf("%w: %s not in comparison", ErrNoVaccinationStart, focus)
	}

	report := models.DelayReport{
		Focus:             target.Display,
		VaccinationStart:  target.VaccinationStart,
		DeathsBeforeStart: target.DeathsBeforeStart,
		DailyRatePost:     target.DailyRatePost,
		EarlierStarters:   []models.DelayComparison{},
	}

	for _, row := range rows {
		if !row.VaccinationStart.Before(target.VaccinationStart) {
			continue
		}
		days := daysBetween(row.VaccinationStart, target.VaccinationStart)
		if report.EarliestStarter == "" {
			report.EarliestStarter = row.Display
			report.DelayDays = days
		}
		if limit > 0 && len(report.EarlierStarters) >= limit {
			continue
		}
		report.EarlierStarters = append(report.EarlierStarters, models.DelayComparison{
			Display:          row.Display,
			VaccinationStart: row.VaccinationStart,
			DaysAhead:        days,
			DailyRatePost:    row.DailyRatePost,
			RateGapPct:       reductionPct(target.DailyRatePost, row.DailyRatePost),
		})
	}
	return report, nil
}
