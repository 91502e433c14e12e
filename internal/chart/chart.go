// Package chart renders the dashboard's faceted charts as an HTML page.
package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kjstillabower/weather-dashboard/internal/dataset"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
)

const (
	TitleScatter = "Daily temperature through the years"
	TitleRolling = "Temperature with rolling mean with 30-day window"
	TitleSeasons = "Average temperature in different seasons"

	// PageTitle is the HTML document title of the chart page.
	PageTitle = "Weather dashboard charts"
)

const (
	seriesNormal  = "normal"
	seriesOutlier = "outlier"

	colorNormal  = "#1f77b4"
	colorOutlier = "#ff7f0e"
	colorBound   = "#333333"

	// missing is how echarts marks an absent data point.
	missing = "-"
)

// Input is everything the chart page draws. Charts whose Show flag is false are omitted.
type Input struct {
	Filtered    []models.EnrichedObservation
	Profile     []dataset.ProfilePoint
	Seasons     []models.SeasonStat
	ShowScatter bool
	ShowRolling bool
}

func size() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"})
}

func dayAxis() charts.GlobalOpts {
	return charts.WithXAxisOpts(opts.XAxis{Name: "day of year", Type: "value", Min: 1, Max: 366})
}

func tempAxis() charts.GlobalOpts {
	return charts.WithYAxisOpts(opts.YAxis{Name: "temperature, °C", Type: "value"})
}

// Scatter returns one scatter chart per city: day of year against temperature,
// split into normal and outlier series.
func Scatter(rows []models.EnrichedObservation) []*charts.Scatter {
	var out []*charts.Scatter
	for _, city := range dataset.Cities(rows) {
		var normal, outliers []opts.ScatterData
		for _, r := range rows {
			if r.City != city {
				continue
			}
			p := opts.ScatterData{Value: []interface{}{r.DayOfYear, r.Temperature}, SymbolSize: 6}
			if r.IsOutlier {
				outliers = append(outliers, p)
			} else {
				normal = append(normal, p)
			}
		}

		sc := charts.NewScatter()
		sc.SetGlobalOptions(
			size(),
			charts.WithTitleOpts(opts.Title{Title: TitleScatter, Subtitle: city}),
			dayAxis(),
			tempAxis(),
		)
		sc.AddSeries(seriesNormal, normal, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorNormal}))
		sc.AddSeries(seriesOutlier, outliers, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorOutlier}))
		out = append(out, sc)
	}
	return out
}

// Rolling returns one line chart per city of the rolling-mean profile.
func Rolling(profile []dataset.ProfilePoint) []*charts.Line {
	var (
		out    []*charts.Line
		order  []string
		byCity = make(map[string][]opts.LineData)
	)
	for _, p := range profile {
		if _, ok := byCity[p.City]; !ok {
			order = append(order, p.City)
		}
		byCity[p.City] = append(byCity[p.City], opts.LineData{Value: []interface{}{p.DayOfYear, p.Value}})
	}

	for _, city := range order {
		line := charts.NewLine()
		line.SetGlobalOptions(
			size(),
			charts.WithTitleOpts(opts.Title{Title: TitleRolling, Subtitle: city}),
			dayAxis(),
			tempAxis(),
		)
		line.AddSeries(city, byCity[city])
		out = append(out, line)
	}
	return out
}

// SeasonBars returns one bar chart per city with the seasonal mean in
// canonical season order and the ±2σ bounds overlaid as lines.
func SeasonBars(stats []models.SeasonStat) []*charts.Bar {
	var (
		out    []*charts.Bar
		order  []string
		byCity = make(map[string]map[string]models.SeasonStat)
	)
	for _, s := range stats {
		if _, ok := byCity[s.City]; !ok {
			order = append(order, s.City)
			byCity[s.City] = make(map[string]models.SeasonStat)
		}
		byCity[s.City][s.Season] = s
	}

	labels := make([]string, len(season.Order))
	for i, s := range season.Order {
		labels[i] = s.String()
	}

	for _, city := range order {
		means := make([]opts.BarData, len(season.Order))
		upper := make([]opts.LineData, len(season.Order))
		lower := make([]opts.LineData, len(season.Order))
		for i, s := range season.Order {
			st, ok := byCity[city][string(s)]
			if !ok {
				means[i] = opts.BarData{Value: missing}
				upper[i] = opts.LineData{Value: missing}
				lower[i] = opts.LineData{Value: missing}
				continue
			}
			means[i] = opts.BarData{Value: round(st.Mean)}
			if math.IsNaN(st.Std) {
				upper[i] = opts.LineData{Value: missing}
				lower[i] = opts.LineData{Value: missing}
				continue
			}
			upper[i] = opts.LineData{Value: round(st.Mean + dataset.Sigma*st.Std)}
			lower[i] = opts.LineData{Value: round(st.Mean - dataset.Sigma*st.Std)}
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			size(),
			charts.WithTitleOpts(opts.Title{Title: TitleSeasons, Subtitle: city}),
			charts.WithXAxisOpts(opts.XAxis{Name: "season"}),
			tempAxis(),
		)
		bar.SetXAxis(labels).AddSeries("mean", means)

		bounds := charts.NewLine()
		bounds.SetXAxis(labels).
			AddSeries(fmt.Sprintf("mean + %gσ", dataset.Sigma), upper, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBound})).
			AddSeries(fmt.Sprintf("mean - %gσ", dataset.Sigma), lower, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBound}))
		bar.Overlap(bounds)
		out = append(out, bar)
	}
	return out
}

// RenderPage writes a single HTML page with every visible chart.
func RenderPage(w io.Writer, in Input) error {
	page := components.NewPage()
	page.PageTitle = PageTitle

	var all []components.Charter
	if in.ShowScatter {
		for _, c := range Scatter(in.Filtered) {
			all = append(all, c)
		}
	}
	if in.ShowRolling {
		for _, c := range Rolling(in.Profile) {
			all = append(all, c)
		}
	}
	if in.ShowScatter {
		for _, c := range SeasonBars(in.Seasons) {
			all = append(all, c)
		}
	}
	page.AddCharts(all...)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
