package analysis

import "errors"

var (
	// ErrNoDataForSelection means the filter matched no rows.
	ErrNoDataForSelection = errors.New("no data for selection")
	// ErrInsufficientData means a before or after window around the pivot is empty.
	ErrInsufficientData = errors.New("insufficient data around pivot")
	// ErrInsufficientSamples means fewer than MinCorrelationSamples paired values exist.
	ErrInsufficientSamples = errors.New("insufficient paired samples")
	// ErrDegenerateSeries means one paired series is constant.
	ErrDegenerateSeries = errors.New("series has zero variance")
	// ErrNoVaccinationStart means no row reports people_vaccinated > 0.
	ErrNoVaccinationStart = errors.New("no vaccination start")
)
