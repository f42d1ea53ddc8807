package models

import "time"

// FilteredSeries is the rows of one location inside [Start, End], ascending by date.
type FilteredSeries struct {
	Location string        `json:"location"`
	Display  string        `json:"display"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Records  []DailyRecord `json:"-"`
}

func (s FilteredSeries) Len() int {
	return len(s.Records)
}

// Point is a dated value; Value is meaningful only when Valid.
type Point struct {
	Date  time.Time `json:"date"`
	Value Measure   `json:"value"`
}

// RelativePoint is a value positioned by its distance in days from a pivot date.
type RelativePoint struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

// XY is one sample of a fitted line.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
