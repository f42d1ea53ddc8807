package models

import (
	"encoding/json"
	"time"
)

// Measure is a numeric observation that may be unknown.
type Measure struct {
	Value float64
	Valid bool
}

// Known returns a valid Measure holding v.
func Known(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// OrZero returns the value, or 0 when unknown.
func (m Measure) OrZero() float64 {
	if !m.Valid {
		return 0
	}
	return m.Value
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Measure{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Known(v)
	return nil
}

// DailyRecord is one row of the source dataset, keyed by (Location, Date).
type DailyRecord struct {
	Location         string    `json:"location"`
	ISOCode          string    `json:"iso_code,omitempty"`
	Date             time.Time `json:"date"`
	NewCases         Measure   `json:"new_cases"`
	NewDeaths        Measure   `json:"new_deaths"`
	TotalCases       Measure   `json:"total_cases"`
	TotalDeaths      Measure   `json:"total_deaths"`
	PeopleVaccinated Measure   `json:"people_vaccinated"`
}

// Field names a numeric column of DailyRecord.
type Field string

const (
	FieldNewCases         Field = "new_cases"
	FieldNewDeaths        Field = "new_deaths"
	FieldTotalCases       Field = "total_cases"
	FieldTotalDeaths      Field = "total_deaths"
	FieldPeopleVaccinated Field = "people_vaccinated"
)

// Get returns the Measure stored for field. Unknown fields are reported as unknown values.
func (r DailyRecord) Get(field Field) Measure {
	switch field {
	case FieldNewCases:
		return r.NewCases
	case FieldNewDeaths:
		return r.NewDeaths
	case FieldTotalCases:
		return r.TotalCases
	case FieldTotalDeaths:
		return r.TotalDeaths
	case FieldPeopleVaccinated:
		return r.PeopleVaccinated
	default:
		return Measure{}
	}
}
