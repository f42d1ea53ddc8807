package handlers

import (
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/services"
)

var epoch = time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func daily(location string, vaccStart int) []models.DailyRecord {
	records := make([]models.DailyRecord, 180)
	total := 0.0
	for i := range records {
		deaths, vaccinated := 10.0, 0.0
		if vaccStart >= 0 && i >= vaccStart {
			deaths, vaccinated = 3, float64(i-vaccStart+1)
		}
		total += deaths
		records[i] = models.DailyRecord{
			Location:         location,
			Date:             epoch.AddDate(0, 0, i),
			NewCases:         models.Known(100),
			NewDeaths:        models.Known(deaths),
			TotalCases:       models.Known(float64(100 * (i + 1))),
			TotalDeaths:      models.Known(total),
			PeopleVaccinated: models.Known(vaccinated),
		}
	}
	return records
}

func loadedAnalytics() *services.Analytics {
	a := newAnalytics()
	var all []models.DailyRecord
	all = append(all, daily("World", 80)...)
	all = append(all, daily("Brazil", 90)...)
	all = append(all, daily("Germany", 60)...)
	a.SetDataset(dataset.New(all, dataset.NewAllowList(nil, ""), 2023))
	return a
}

func newAnalytics() *services.Analytics {
	return services.NewAnalytics(services.Options{
		Clock:  clockwork.NewFakeClockAt(epoch),
		Logger: discardLogger(),
	})
}
