package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/weather-dashboard/internal/chart"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/dataset"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

type analyzeOptions struct {
	file     string
	city     string
	temp     float64
	selected []string
	from     string
	to       string
	csvOut   string
	xlsxOut  string
	chartOut string
	window   int
}

func newAnalyzeCmd(app *cli) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the dataset pipeline on a CSV file without the server",
		Long:  `Loads a city,timestamp,temperature,season CSV, applies the city and date filter, prints seasonal statistics and insights, and optionally writes the filtered table and charts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var current *float64
			if cmd.Flags().Changed("temp") {
				current = &opts.temp
			}
			return app.analyze(cmd.OutOrStdout(), opts, current, time.Now())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "dataset CSV to analyze")
	f.StringVar(&opts.city, "city", "", "current city; always included in the filter")
	f.Float64Var(&opts.temp, "temp", 0, "current temperature in °C for the insight assessment")
	f.StringSliceVar(&opts.selected, "select", nil, "cities to include (repeatable or comma separated)")
	f.StringVar(&opts.from, "from", "", "first day to include (YYYY-MM-DD)")
	f.StringVar(&opts.to, "to", "", "last day to include (YYYY-MM-DD)")
	f.StringVar(&opts.csvOut, "csv", "", "write the filtered table as CSV to this path")
	f.StringVar(&opts.xlsxOut, "xlsx", "", "write the filtered table as XLSX to this path")
	f.StringVar(&opts.chartOut, "charts", "", "write the chart page as HTML to this path")
	f.IntVar(&opts.window, "window", dataset.DefaultWindow, "rolling mean window in samples")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (app *cli) analyze(out io.Writer, opts *analyzeOptions, current *float64, now time.Time) error {
	logger := app.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	filter, err := validation.ValidateFilter(validation.FilterQuery{
		Cities: opts.selected,
		From:   opts.from,
		To:     opts.to,
	})
	if err != nil {
		return err
	}

	in, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer in.Close()
	rows, err := dataset.ParseCSV(in)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.file, err)
	}

	// Offline runs have no credential to check.
	sess := &session.Session{TokenPassed: true, DatasetName: filepath.Base(opts.file), Observations: rows}
	if opts.city != "" {
		city, err := validation.ValidateCity(opts.city)
		if err != nil {
			return err
		}
		sess.CityName = cases.Title(language.Und).String(city)
		if current != nil {
			sess.WeatherChecked = true
			sess.Weather = &models.WeatherData{City: sess.CityName, Temperature: *current}
		}
	}

	view := dashboard.Build(sess, filter, now, opts.window)
	logger.Info("dataset analyzed",
		zap.String("dataset", sess.DatasetName),
		zap.Int("rows", len(view.Raw)),
		zap.Int("filtered", len(view.Filtered)),
		zap.Int("outliers", view.Outliers))

	printSummary(out, view)

	if opts.csvOut != "" {
		if err := writeFile(opts.csvOut, func(w io.Writer) error { return dataset.WriteCSV(w, view.Filtered) }); err != nil {
			return err
		}
	}
	if opts.xlsxOut != "" {
		if err := writeFile(opts.xlsxOut, func(w io.Writer) error { return dataset.WriteXLSX(w, view.Filtered) }); err != nil {
			return err
		}
	}
	if opts.chartOut != "" {
		err := writeFile(opts.chartOut, func(w io.Writer) error {
			return chart.RenderPage(w, chart.Input{
				Filtered:    view.Filtered,
				Profile:     view.Profile,
				Seasons:     view.Seasons,
				ShowScatter: view.ShowScatter,
				ShowRolling: view.ShowRolling,
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, v *dashboard.View) {
	fmt.Fprintf(out, "Rows: %d, filtered: %d, outliers: %d\n", len(v.Raw), len(v.Filtered), v.Outliers)
	if !v.From.IsZero() {
		fmt.Fprintf(out, "Range: %s to %s\n", v.From.Format(validation.DateLayout), v.To.Format(validation.DateLayout))
	}
	if len(v.Seasons) > 0 {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CITY\tSEASON\tMEAN\tSTD\tCOUNT")
		for _, s := range v.Seasons {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\n", s.City, s.Season, s.Mean, s.Std, s.Count)
		}
		_ = tw.Flush()
	}
	if v.Insight != nil {
		fmt.Fprintf(out, "Highest temperature in %s within the 95%% Confidence interval: %.1f°C\n", v.Insight.City, v.Insight.MaxNormal)
		fmt.Fprintf(out, "Lowest temperature in %s within the 95%% Confidence interval: %.1f°C\n", v.Insight.City, v.Insight.MinNormal)
		if v.Insight.Current != nil {
			fmt.Fprintf(out, "Current temperature is: %s\n", v.Insight.Assessment)
		}
	}
	if v.Warning != "" {
		fmt.Fprintln(out, v.Warning)
	}
}

// writeFile renders into memory first so a failed render leaves no partial file.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
