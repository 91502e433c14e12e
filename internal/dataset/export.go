package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Download file names offered to the browser.
const (
	CSVFileName  = "filtered_weather_data.csv"
	XLSXFileName = "filtered_weather_data.xlsx"
)

// ExportColumns is the header of exported tables.
var ExportColumns = []string{"city", "timestamp", "temperature", "season", "year", "day_of_year", "mean", "std", "top_95", "bot_95", "is_outlier"}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// WriteCSV writes rows as CSV without an index column. Timestamps are written
// as plain dates when every row falls on midnight.
func WriteCSV(w io.Writer, rows []models.EnrichedObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	layout := timestampLayout(rows)
	for i, r := range rows {
		rec := []string{
			r.City,
			r.Timestamp.Format(layout),
			formatFloat(r.Temperature),
			r.Season,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.DayOfYear),
			formatFloat(r.Mean),
			formatFloat(r.Std),
			formatFloat(r.Top95),
			formatFloat(r.Bot95),
			formatBool(r.IsOutlier),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []models.EnrichedObservation) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "filtered"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	layout := timestampLayout(rows)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.City,
			r.Timestamp.Format(layout),
			cellFloat(r.Temperature),
			r.Season,
			r.Year,
			r.DayOfYear,
			cellFloat(r.Mean),
			cellFloat(r.Std),
			cellFloat(r.Top95),
			cellFloat(r.Bot95),
			r.IsOutlier,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

func timestampLayout(rows []models.EnrichedObservation) string {
	for _, r := range rows {
		h, m, s := r.Timestamp.Clock()
		if h != 0 || m != 0 || s != 0 {
			return dateTimeLayout
		}
	}
	return dateLayout
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cellFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
