package models

import "time"

// Selection is the filter state chosen in the UI.
type Selection struct {
	Location  string `json:"location"`
	YearStart int    `json:"yearStart"`
	YearEnd   int    `json:"yearEnd"`
}

type Notice struct {
	Section string `json:"section"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Headline struct {
	TotalCases       int64 `json:"total_cases"`
	TotalDeaths      int64 `json:"total_deaths"`
	PeopleVaccinated int64 `json:"people_vaccinated"`
}

type DailyPoint struct {
	Date             time.Time `json:"date"`
	NewCases         float64   `json:"new_cases"`
	NewDeaths        float64   `json:"new_deaths"`
	TotalDeaths      float64   `json:"total_deaths"`
	PeopleVaccinated float64   `json:"people_vaccinated"`
}

type TrendSection struct {
	Window     int     `json:"window"`
	Centered   bool    `json:"centered"`
	MinPeriods int     `json:"min_periods"`
	Raw        []Point `json:"raw"`
	Smoothed   []Point `json:"smoothed"`
}

type CFRSection struct {
	Trend               TrendSection `json:"trend"`
	VaccinationProgress []Point      `json:"vaccination_progress"`
	Correlation         *Correlation `json:"correlation"`
	FitLine             []XY         `json:"fit_line,omitempty"`
}

type ExtendedSection struct {
	Comparison PeriodComparison `json:"comparison"`
	Before     []RelativePoint  `json:"before"`
	After      []RelativePoint  `json:"after"`
}

// DashboardView holds every series and figure computed for one Selection.
// Sections that could not be computed are nil and explained by a Notice.
type DashboardView struct {
	Selection        Selection         `json:"selection"`
	Display          string            `json:"display"`
	Start            time.Time         `json:"start"`
	End              time.Time         `json:"end"`
	LastUpdate       time.Time         `json:"last_update"`
	Headline         Headline          `json:"headline"`
	Daily            []DailyPoint      `json:"daily"`
	VaccinationStart *time.Time        `json:"vaccination_start"`
	DeathTrend       TrendSection      `json:"death_trend"`
	Pivot            *PeriodComparison `json:"pivot_comparison"`
	CFR              CFRSection        `json:"cfr"`
	Extended         *ExtendedSection  `json:"extended_comparison"`
	Notices          []Notice          `json:"notices"`
}

// ComparisonView is the cross-location table plus the delay analysis of the focus location.
type ComparisonView struct {
	WindowDays int           `json:"window_days"`
	Rows       []LocationRow `json:"rows"`
	Delay      *DelayReport  `json:"delay"`
	Notices    []Notice      `json:"notices"`
}

func (v *DashboardView) AddNotice(section, code, message string) {
	v.Notices = append(v.Notices, Notice{Section: section, Code: code, Message: message})
}
