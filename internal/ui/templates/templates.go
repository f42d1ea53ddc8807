package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"covid-dashboard/internal/models"
)

// The SSE endpoints only need the selection. Everything else in the signal
// store is either local (underscore-prefixed) or derived from it.
const selectionFilter = "{filterSignals: {include: /^(location|yearStart|yearEnd)$/}}"

const (
	dashboardAction  = "@get('/sse/dashboard', " + selectionFilter + ")"
	comparisonAction = "@get('/sse/comparison', " + selectionFilter + ")"
	initAction       = dashboardAction + "; " + comparisonAction
)

// PageData is everything the shell page needs before any data is streamed.
type PageData struct {
	Locations  []string
	Years      []int
	Selection  models.Selection
	Headline   *models.DashboardView
	Comparison *models.ComparisonView
	Notices    []models.Notice
}

// RenderString renders c into a string, for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func selectionSignals(sel models.Selection) string {
	b, err := json.Marshal(sel)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return date(*t)
}

func fixed(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// thousands formats whole numbers with dot separators, pt-BR style.
func thousands[T ~int | ~int64 | ~float64](v T) string {
	n := int64(v)
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
