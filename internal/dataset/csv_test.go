package dataset

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "iso_code,location,date,total_cases,new_cases,total_deaths,new_deaths,people_vaccinated\n"

func testAllowList() AllowList {
	return NewAllowList(nil, "")
}

func decodeString(t *testing.T, body string) decodeResult {
	t.Helper()
	res, err := decodeCSV(context.Background(), strings.NewReader(body), testAllowList())
	require.NoError(t, err)
	return res
}

func TestDecodeCSV_Basic(t *testing.T) {
	res := decodeString(t, header+
		"BRA,Brazil,2021-01-17,100,10,5,1,112\n"+
		"BRA,Brazil,2021-01-18,,,,,\n")

	require.Len(t, res.records, 2)
	first := res.records[0]
	assert.Equal(t, "Brazil", first.Location)
	assert.Equal(t, "BRA", first.ISOCode)
	assert.Equal(t, time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC), first.Date)
	assert.InDelta(t, 100, first.TotalCases.Value, 1e-9)
	assert.InDelta(t, 112, first.PeopleVaccinated.Value, 1e-9)

	blank := res.records[1]
	assert.False(t, blank.TotalCases.Valid, "total_cases stays unknown")
	assert.True(t, blank.NewCases.Valid)
	assert.Zero(t, blank.NewCases.Value)
	assert.True(t, blank.NewDeaths.Valid)
	assert.True(t, blank.TotalDeaths.Valid)
	assert.True(t, blank.PeopleVaccinated.Valid)
	assert.Zero(t, blank.PeopleVaccinated.Value)
}

func TestDecodeCSV_Synonyms(t *testing.T) {
	res := decodeString(t, "\ufeffcode,country,date,total_cases,new_cases,total_deaths,new_deaths,people_vaccinated\n"+
		"DEU,Germany,2021-03-01,1.5e3,20.0,40,2,NA\n")

	require.Len(t, res.records, 1)
	assert.Equal(t, "Germany", res.records[0].Location)
	assert.Equal(t, "DEU", res.records[0].ISOCode)
	assert.InDelta(t, 1500, res.records[0].TotalCases.Value, 1e-9)
	assert.InDelta(t, 20, res.records[0].NewCases.Value, 1e-9)
	assert.Zero(t, res.records[0].PeopleVaccinated.Value)
}

func TestDecodeCSV_SkipsLocationsOutsideAllowList(t *testing.T) {
	res := decodeString(t, header+
		"BRA,Brazil,2021-01-17,100,10,5,1,112\n"+
		"ATL,Atlantis,2021-01-17,100,10,5,1,112\n"+
		"OWID_WRL,World,2021-01-17,100,10,5,1,112\n")

	require.Len(t, res.records, 2)
	for _, rec := range res.records {
		assert.NotEqual(t, "Atlantis", rec.Location)
	}
}

func TestDecodeCSV_SkipsBadDates(t *testing.T) {
	res := decodeString(t, header+
		"BRA,Brazil,not-a-date,100,10,5,1,112\n"+
		"BRA,Brazil,2021/01/18,100,10,5,1,112\n")

	require.Len(t, res.records, 1)
	assert.Equal(t, 1, res.skipped)
	assert.Equal(t, 18, res.records[0].Date.Day())
}

func TestDecodeCSV_RejectsNonFiniteNumbers(t *testing.T) {
	res := decodeString(t, header+"BRA,Brazil,2021-01-17,Inf,NaN,5,1,112\n")

	require.Len(t, res.records, 1)
	assert.False(t, res.records[0].TotalCases.Valid)
	assert.Zero(t, res.records[0].NewCases.Value)
}

func TestDecodeCSV_KeepsInputOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	total := batchSize*2 + 17
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "BRA,Brazil,%s,%d,1,0,0,0\n", start.AddDate(0, 0, i).Format(dateLayout), i)
	}

	res := decodeString(t, b.String())
	require.Len(t, res.records, total)
	for i, rec := range res.records {
		require.InDelta(t, float64(i), rec.TotalCases.Value, 1e-9, "row %d out of order", i)
	}
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "empty", body: "", wantErr: "empty file"},
		{name: "missing column", body: "location,date,new_cases\nBrazil,2021-01-01,1\n", wantErr: "missing required column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeCSV(context.Background(), strings.NewReader(tt.body), testAllowList())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeCSV_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := decodeCSV(ctx, strings.NewReader(header+"BRA,Brazil,2021-01-17,100,10,5,1,112\n"), testAllowList())
	assert.ErrorIs(t, err, context.Canceled)
}
