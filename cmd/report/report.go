package main

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/observability"
	"covid-dashboard/internal/services"
)

const reportTimeout = 5 * time.Minute

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"f1":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f3":   func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"pct":  func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
	"rule": func(title string) string { return title + "\n" + strings.Repeat("-", len([]rune(title))) },
}).Parse(`{{rule (printf "%s %d-%d" .View.Display .View.Selection.YearStart .View.Selection.YearEnd)}}
Data range:        {{date .View.Start}} to {{date .View.End}} (last update {{date .View.LastUpdate}})
Total cases:       {{.View.Headline.TotalCases}}
Total deaths:      {{.View.Headline.TotalDeaths}}
People vaccinated: {{.View.Headline.PeopleVaccinated}}
Vaccination start: {{with .View.VaccinationStart}}{{date .}}{{else}}none{{end}}
{{with .View.Pivot}}
{{rule (printf "%d days around vaccination start" .WindowDays)}}
                   before       after
Cases              {{printf "%-12.0f" .Before.CasesSum}} {{printf "%.0f" .After.CasesSum}}
Deaths             {{printf "%-12.0f" .Before.DeathsSum}} {{printf "%.0f" .After.DeathsSum}}
Deaths per case    {{printf "%-12s" (pct .Before.CaseFatality)}} {{pct .After.CaseFatality}}
Rate change:       {{f1 .RateReductionPct}}%
Case volume:       {{f1 .CaseVolumeChangePct}}%
Rate-based estimate: {{f1 .CounterfactualLivesSaved}}
{{end}}{{with .View.Extended}}
{{rule (printf "%d days around vaccination start" .Comparison.WindowDays)}}
Rate change:       {{f1 .Comparison.RateReductionPct}}%
Rate-based estimate:  {{f1 .Comparison.CounterfactualLivesSaved}}
Count-based estimate: {{f1 .Comparison.CountBasedEstimate}}
{{end}}{{with .View.CFR.Correlation}}
{{rule "Vaccination progress vs case fatality"}}
Samples:           {{.Samples}}
Pearson r:         {{f3 .Pearson}}
Fit:               y = {{f3 .Slope}}x + {{f3 .Intercept}}
{{end}}{{if .View.Notices}}
{{rule "Notices"}}
{{range .View.Notices}}[{{.Section}}] {{.Message}}
{{end}}{{end}}{{with .Comparison}}
{{rule (printf "Locations by vaccination start (%d days)" .WindowDays)}}
{{range .Rows}}{{printf "%-22s" .Display}} {{date .VaccinationStart}}  {{printf "%10d" .DeathsBeforeStart}}  {{printf "%8.1f" .DailyRatePost}}/day  {{printf "%10d" .TotalDeaths}}
{{end}}{{with .Delay}}{{if .EarliestStarter}}
{{.Focus}} started {{.DelayDays}} days after {{.EarliestStarter}}.
{{range .EarlierStarters}}  {{printf "%-20s" .Display}} {{.DaysAhead}} days earlier, rate gap {{f1 .RateGapPct}}%
{{end}}{{end}}{{end}}{{end}}`))

type reportData struct {
	View       *models.DashboardView
	Comparison *models.ComparisonView
}

// ReportCmd runs the pipeline once for one selection and prints the result.
type ReportCmd struct {
	location   string
	from       int
	to         int
	comparison bool

	newLoader  func(*config.Config) services.DatasetLoader
	loadConfig func() (*config.Config, error)
}

func NewReportCmd(newLoader func(*config.Config) services.DatasetLoader, loadConfig func() (*config.Config, error)) *ReportCmd {
	return &ReportCmd{newLoader: newLoader, loadConfig: loadConfig}
}

func (rc *ReportCmd) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rc.location, "location", "", "Display name of the location (default: the aggregate)")
	cmd.Flags().IntVar(&rc.from, "from", 0, "First year (default: first selectable year)")
	cmd.Flags().IntVar(&rc.to, "to", 0, "Last year (default: last selectable year)")
	cmd.Flags().BoolVar(&rc.comparison, "comparison", true, "Include the cross-location table")
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), reportTimeout)
	defer cancel()

	analytics := services.NewAnalytics(services.Options{
		PivotWindowDays:    cfg.Analysis.PivotWindowDays,
		ExtendedWindowDays: cfg.Analysis.ExtendedWindowDays,
		FocusLocation:      cfg.Analysis.FocusLocation,
		Logger:             observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger),
	})
	if err := analytics.Load(ctx, rc.newLoader(cfg)); err != nil {
		return err
	}

	view, err := analytics.View(ctx, models.Selection{Location: rc.location, YearStart: rc.from, YearEnd: rc.to})
	if err != nil {
		return err
	}

	data := reportData{View: view}
	if rc.comparison {
		if data.Comparison, err = analytics.Comparison(); err != nil {
			return err
		}
	}
	return reportTemplate.Execute(cmd.OutOrStdout(), data)
}
