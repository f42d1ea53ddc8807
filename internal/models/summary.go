package models

import "time"

type PeriodSummary struct {
	Days            int     `json:"days"`
	CasesSum        float64 `json:"total_cases_sum"`
	DeathsSum       float64 `json:"total_deaths_sum"`
	CaseFatality    float64 `json:"case_fatality_rate"`
	MeanDailyDeaths float64 `json:"mean_daily_deaths"`
}

// PeriodComparison contrasts the window before a pivot date with the window after it.
type PeriodComparison struct {
	Pivot      time.Time     `json:"pivot"`
	WindowDays int           `json:"window_days"`
	Before     PeriodSummary `json:"before"`
	After      PeriodSummary `json:"after"`

	RateReductionPct     float64 `json:"rate_reduction_pct"`
	MeanReductionPct     float64 `json:"mean_reduction_pct"`
	CaseVolumeChangePct  float64 `json:"case_volume_change_pct"`
	DeathVolumeChangePct float64 `json:"death_volume_change_pct"`

	// CounterfactualLivesSaved applies the before-window fatality rate to the
	// after-window cases. Negative values mean more deaths than that rate predicts.
	CounterfactualLivesSaved float64 `json:"counterfactual_lives_saved"`

	// CountBasedEstimate is the raw difference in mean daily deaths scaled to the
	// window. It ignores case volume.
	CountBasedEstimate float64 `json:"count_based_estimate"`
}

type Correlation struct {
	Samples   int     `json:"samples"`
	Pearson   float64 `json:"pearson_r"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	MinX      float64 `json:"min_x"`
	MaxX      float64 `json:"max_x"`
	Pairs     []XY    `json:"pairs"`
}

// Fit returns n points of the fitted line evenly spaced over [MinX, MaxX].
func (c Correlation) Fit(n int) []XY {
	if n <= 0 {
		return nil
	}
	line := make([]XY, n)
	if n == 1 {
		line[0] = XY{X: c.MinX, Y: c.Slope*c.MinX + c.Intercept}
		return line
	}
	step := (c.MaxX - c.MinX) / float64(n-1)
	for i := range line {
		x := c.MinX + float64(i)*step
		if i == n-1 {
			x = c.MaxX
		}
		line[i] = XY{X: x, Y: c.Slope*x + c.Intercept}
	}
	return line
}

// LocationRow is one line of the cross-location comparison table.
type LocationRow struct {
	Location          string    `json:"location"`
	Display           string    `json:"display"`
	VaccinationStart  time.Time `json:"vaccination_start"`
	DeathsBeforeStart int64     `json:"deaths_before_start"`
	DailyRatePost     float64   `json:"daily_rate_post"`
	TotalDeaths       int64     `json:"total_deaths"`
}

type DelayComparison struct {
	Display          string    `json:"display"`
	VaccinationStart time.Time `json:"vaccination_start"`
	DaysAhead        int       `json:"days_ahead"`
	DailyRatePost    float64   `json:"daily_rate_post"`
	RateGapPct       float64   `json:"rate_gap_pct"`
}

// DelayReport describes how late the focus location started vaccinating.
type DelayReport struct {
	Focus             string            `json:"focus"`
	VaccinationStart  time.Time         `json:"vaccination_start"`
	DeathsBeforeStart int64             `json:"deaths_before_start"`
	DailyRatePost     float64           `json:"daily_rate_post"`
	EarliestStarter   string            `json:"earliest_starter,omitempty"`
	DelayDays         int               `json:"delay_days"`
	EarlierStarters   []DelayComparison `json:"earlier_starters"`
}
