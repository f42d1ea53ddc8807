package analysis

import (
	"fmt"
	"math"
	"time"

	"covid-dashboard/internal/models"
)

// MinCorrelationSamples is the smallest number of paired values Correlate accepts.
const MinCorrelationSamples = 11

// FitPoints is the number of samples drawn along the fitted line.
const FitPoints = 50

// Correlate pairs x and y by date, keeping dates on or after pivot where both
// are known, and returns the Pearson coefficient together with the least
// squares line y = slope*x + intercept.
func Correlate(x, y []models.Point, pivot time.Time) (models.Correlation, error) {
	ys := make(map[time.Time]float64, len(y))
	for _, p := range y {
		if p.Value.Valid {
			ys[p.Date] = p.Value.Value
		}
	}

	var pairs []models.XY
	for _, p := range x {
		if p.Date.Before(pivot) || !p.Value.Valid {
			continue
		}
		if yv, ok := ys[p.Date]; ok {
			pairs = append(pairs, models.XY{X: p.Value.Value, Y: yv})
		}
	}

	if len(pairs) < MinCorrelationSamples {
		return models.Correlation{}, fmt.Errorf("%w: %d of %d required", ErrInsufficientSamples, len(pairs), MinCorrelationSamples)
	}
	return fit(pairs)
}

func fit(pairs []models.XY) (models.Correlation, error) {
	n := float64(len(pairs))
	c := models.Correlation{
		Samples: len(pairs),
		Pairs:   pairs,
		MinX:    pairs[0].X,
		MaxX:    pairs[0].X,
	}

	var sumX, sumY float64
	for _, p := range pairs {
		sumX += p.X
		sumY += p.Y
		c.MinX = math.Min(c.MinX, p.X)
		c.MaxX = math.Max(c.MaxX, p.X)
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, syy, sxy float64
	for _, p := range pairs {
		dx, dy := p.X-meanX, p.Y-meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Correlation{}, fmt.Errorf("%w: %d samples", ErrDegenerateSeries, len(pairs))
	}

	c.Pearson = math.Max(-1, math.Min(1, sxy/math.Sqrt(sxx*syy)))
	c.Slope = sxy / sxx
	c.Intercept = meanY - c.Slope*meanX
	return c, nil
}
