package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-dashboard/internal/models"
)

func TestDashboard(t *testing.T) {
	var b strings.Builder
	err := Dashboard(PageData{
		Locations: []string{"Mundo", "Brasil"},
		Years:     []int{2020, 2021},
		Selection: models.Selection{Location: "Brasil", YearStart: 2020, YearEnd: 2021},
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	html := b.String()
	assert.Contains(t, html, `<option value="Brasil" selected>Brasil</option>`)
	assert.Contains(t, html, `<option value="Mundo">Mundo</option>`)
	assert.Contains(t, html, `data-signals="{&#34;location&#34;:&#34;Brasil&#34;,&#34;yearStart&#34;:2020,&#34;yearEnd&#34;:2021}"`)
	assert.Contains(t, html, `id="headline"`)
	assert.Contains(t, html, `id="comparison-table"`)
	assert.Contains(t, html, "datastar@1.0.0/bundles/datastar.js")
	assert.Contains(t, html, `data-attr-data-updated="$_dashboard.last_update"`)
}

func TestDashboardRequestsSendOnlySelection(t *testing.T) {
	html, err := RenderString(context.Background(), Dashboard(PageData{}))
	require.NoError(t, err)

	filter := "{filterSignals: {include: /^(location|yearStart|yearEnd)$/}}"
	assert.Contains(t, html, `data-init="@get(&#39;/sse/dashboard&#39;, `+filter+`); @get(&#39;/sse/comparison&#39;, `+filter+`)"`)
	assert.Contains(t, html, `data-on-change="@get(&#39;/sse/dashboard&#39;, `+filter+`)"`)
	assert.Equal(t, 3, strings.Count(html, "filterSignals"))
}

func TestYearOptionsMarkSelection(t *testing.T) {
	html, err := RenderString(context.Background(), Dashboard(PageData{
		Years:     []int{2020, 2021, 2022},
		Selection: models.Selection{YearStart: 2021, YearEnd: 2022},
	}))
	require.NoError(t, err)

	assert.Contains(t, html, `<option value="2020">2020</option>`)
	assert.Contains(t, html, `<option value="2021" selected>2021</option>`)
	assert.Contains(t, html, `<option value="2022" selected>2022</option>`)
}

func TestHeadline(t *testing.T) {
	start := time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC)
	view := &models.DashboardView{
		Display:          "Brasil",
		Headline:         models.Headline{TotalCases: 37000000, TotalDeaths: 700000, PeopleVaccinated: 189000000},
		VaccinationStart: &start,
		LastUpdate:       time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	html, err := RenderString(context.Background(), Headline(view))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, `<section id="headline">`))
	assert.Contains(t, html, "37.000.000")
	assert.Contains(t, html, "17/01/2021")
	assert.Contains(t, html, "31/12/2023")
	assert.NotContains(t, html, `class="pivot"`)

	placeholder, err := RenderString(context.Background(), Headline(nil))
	require.NoError(t, err)
	assert.Contains(t, placeholder, "Carregando")
}

func TestNoticesEscapesMessages(t *testing.T) {
	html, err := RenderString(context.Background(), Notices([]models.Notice{
		{Section: "correlation", Code: "insufficient_samples", Message: "<script>alert(1)</script>"},
	}))
	require.NoError(t, err)

	assert.Contains(t, html, "notice-insufficient_samples")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestComparisonTable(t *testing.T) {
	view := &models.ComparisonView{
		WindowDays: 180,
		Rows: []models.LocationRow{
			{Display: "Reino Unido", VaccinationStart: time.Date(2020, 12, 8, 0, 0, 0, 0, time.UTC), DailyRatePost: 412.34, TotalDeaths: 230000},
		},
		Delay: &models.DelayReport{
			Focus:            "Brasil",
			VaccinationStart: time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC),
			EarliestStarter:  "Reino Unido",
			DelayDays:        40,
			EarlierStarters:  []models.DelayComparison{{Display: "Reino Unido", DaysAhead: 40, RateGapPct: -12.5}},
		},
	}

	html, err := RenderString(context.Background(), ComparisonTable(view))
	require.NoError(t, err)

	assert.Contains(t, html, "412.3")
	assert.Contains(t, html, "230.000")
	assert.Contains(t, html, "40 dias após Reino Unido")
	assert.Contains(t, html, "-12.5%")
}

func TestRenderHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RenderString(ctx, Notices(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", thousands(int64(0)))
	assert.Equal(t, "999", thousands(999))
	assert.Equal(t, "1.000", thousands(1000.9))
	assert.Equal(t, "-1.234.567", thousands(int64(-1234567)))
}
