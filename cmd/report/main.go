package main

import (
	"os"

	"github.com/spf13/cobra"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/observability"
	"covid-dashboard/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:          "report",
		Short:        "Print the vaccination and mortality report for one location",
		SilenceUsage: true,
	}

	rc := NewReportCmd(func(cfg *config.Config) services.DatasetLoader {
		return dataset.NewConfiguredLoader(cfg.Data, observability.NewLogger(cfg.Logger), nil)
	}, config.Load)
	root.RunE = rc.run
	rc.bindFlags(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
