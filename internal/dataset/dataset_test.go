package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(location string, date time.Time, newDeaths float64) models.DailyRecord {
	return models.DailyRecord{
		Location:         location,
		Date:             date,
		NewCases:         models.Known(10),
		NewDeaths:        models.Known(newDeaths),
		TotalDeaths:      models.Known(0),
		PeopleVaccinated: models.Known(0),
	}
}

func TestNew_SortsAndDedupes(t *testing.T) {
	ds := New([]models.DailyRecord{
		record("Brazil", day(2021, 1, 3), 3),
		record("Brazil", day(2021, 1, 1), 1),
		record("Brazil", day(2021, 1, 2), 2),
		record("Brazil", day(2021, 1, 1), 9),
		record("Atlantis", day(2019, 1, 1), 1),
	}, testAllowList(), 2023)

	rows := ds.Records("Brazil")
	require.Len(t, rows, 3)
	assert.Equal(t, day(2021, 1, 1), rows[0].Date)
	assert.InDelta(t, 9, rows[0].NewDeaths.Value, 1e-9, "last duplicate wins")
	assert.Equal(t, day(2021, 1, 3), rows[2].Date)

	assert.Equal(t, 1, ds.Duplicates())
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, 1, ds.Locations())
	assert.Nil(t, ds.Records("Atlantis"))
	assert.Equal(t, day(2021, 1, 1), ds.MinDate())
	assert.Equal(t, day(2021, 1, 3), ds.MaxDate())
}

func TestDataset_SelectableYears(t *testing.T) {
	ds := New([]models.DailyRecord{
		record("World", day(2020, 1, 5), 0),
		record("Brazil", day(2021, 6, 1), 0),
		record("Brazil", day(2023, 12, 31), 0),
		record("Brazil", day(2024, 2, 1), 0),
	}, testAllowList(), 2023)

	assert.Equal(t, []int{2020, 2021, 2023}, ds.SelectableYears())
}

func TestDataset_SelectableYearsEmpty(t *testing.T) {
	ds := New(nil, testAllowList(), 2023)
	assert.Empty(t, ds.SelectableYears())
	assert.Zero(t, ds.Catalog().Len())
}

func TestCatalog_Names(t *testing.T) {
	present := map[string]bool{
		"World": true, "Brazil": true, "Germany": true, "South Africa": true, "Argentina": true,
	}
	c := NewCatalog(testAllowList(), present)

	names := c.Names()
	require.Len(t, names, 5)
	assert.Equal(t, "Mundo", names[0], "aggregate first")
	assert.Equal(t, []string{"Alemanha", "Argentina", "Brasil", "África do Sul"}, names[1:])

	names[0] = "mutated"
	assert.Equal(t, "Mundo", c.Names()[0])
}

func TestCatalog_Lookups(t *testing.T) {
	c := NewCatalog(testAllowList(), map[string]bool{"World": true, "Brazil": true})

	assert.Equal(t, "Brazil", c.Canonical("Brasil"))
	assert.Equal(t, "Narnia", c.Canonical("Narnia"), "identity fallback")
	assert.Equal(t, "Brasil", c.Display("Brazil"))
	assert.Equal(t, "India", c.Display("India"), "absent locations are not mapped")
	assert.True(t, c.Contains("Brasil"))
	assert.False(t, c.Contains("Índia"))
	assert.True(t, c.IsAggregate("World"))
	assert.Equal(t, 1, c.Position("Brasil"))
	assert.Equal(t, -1, c.Position("Índia"))
}

func TestCatalog_CustomAllowList(t *testing.T) {
	allow := NewAllowList([]config.LocationPair{
		{Canonical: "Earth", Display: "Planet"},
		{Canonical: "Chile", Display: "Chile"},
	}, "Earth")

	assert.True(t, allow.Allows("Chile"))
	assert.False(t, allow.Allows("Brazil"))

	c := NewCatalog(allow, map[string]bool{"Earth": true, "Chile": true})
	assert.Equal(t, []string{"Planet", "Chile"}, c.Names())
	assert.Equal(t, "Earth", c.Aggregate())
}
