package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"covid-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8
	dateLayout = "2006-01-02"
)

var errMissingColumn = errors.New("missing required column")

// columnSynonyms lists accepted header names per canonical column, preferred first.
var columnSynonyms = map[string][]string{
	"date":              {"date"},
	"location":          {"location", "country"},
	"iso_code":          {"iso_code", "code"},
	"new_cases":         {"new_cases"},
	"new_deaths":        {"new_deaths"},
	"total_cases":       {"total_cases"},
	"total_deaths":      {"total_deaths"},
	"people_vaccinated": {"people_vaccinated"},
}

var requiredColumns = []string{
	"date", "location", "new_cases", "new_deaths", "total_cases", "total_deaths", "people_vaccinated",
}

type columns map[string]int

func (c columns) value(record []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// decodeResult is the outcome of decoding one CSV stream.
type decodeResult struct {
	records []models.DailyRecord
	skipped int
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	cols := make(columns, len(columnSynonyms))
	for name, synonyms := range columnSynonyms {
		for _, s := range synonyms {
			if idx, ok := index[s]; ok {
				cols[name] = idx
				break
			}
		}
	}

	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w %q", errMissingColumn, name)
		}
	}
	return cols, nil
}

// decodeCSV reads rows for allow-listed locations. Batches are decoded
// concurrently and reassembled in input order.
func decodeCSV(ctx context.Context, r io.Reader, allow AllowList) (decodeResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return decodeResult{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return decodeResult{}, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return decodeResult{}, err
	}

	var batches [][][]string
	batch := make([][]string, 0, batchSize)
	for {
		if err := ctx.Err(); err != nil {
			return decodeResult{}, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return decodeResult{}, fmt.Errorf("read row: %w", err)
		}

		if !allow.Allows(cols.value(record, "location")) {
			continue
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			batches = append(batches, batch)
			batch = make([][]string, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	decoded := make([]decodeResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, rows := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decoded[i] = decodeBatch(rows, cols)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decodeResult{}, err
	}

	var result decodeResult
	for _, d := range decoded {
		result.records = append(result.records, d.records...)
		result.skipped += d.skipped
	}
	return result, nil
}

func decodeBatch(rows [][]string, cols columns) decodeResult {
	out := decodeResult{records: make([]models.DailyRecord, 0, len(rows))}
	for _, row := range rows {
		rec, err := parseRecord(row, cols)
		if err != nil {
			out.skipped++
			continue
		}
		out.records = append(out.records, rec)
	}
	return out
}

func parseRecord(row []string, cols columns) (models.DailyRecord, error) {
	date, err := parseDate(cols.value(row, "date"))
	if err != nil {
		return models.DailyRecord{}, err
	}

	return models.DailyRecord{
		Location:         cols.value(row, "location"),
		ISOCode:          cols.value(row, "iso_code"),
		Date:             date,
		NewCases:         zeroIfUnknown(parseMeasure(cols.value(row, "new_cases"))),
		NewDeaths:        zeroIfUnknown(parseMeasure(cols.value(row, "new_deaths"))),
		TotalCases:       parseMeasure(cols.value(row, "total_cases")),
		TotalDeaths:      zeroIfUnknown(parseMeasure(cols.value(row, "total_deaths"))),
		PeopleVaccinated: zeroIfUnknown(parseMeasure(cols.value(row, "people_vaccinated"))),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	formats := []string{dateLayout, "2006-01-02T15:04:05", time.RFC3339, "2006/01/02"}
	var lastErr error
	for _, layout := range formats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, lastErr)
}

func parseMeasure(s string) models.Measure {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return models.Measure{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Measure{}
	}
	return models.Known(v)
}

func zeroIfUnknown(m models.Measure) models.Measure {
	if !m.Valid {
		return models.Known(0)
	}
	return m
}
