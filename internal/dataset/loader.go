// Package dataset loads historical daily weather observations from CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/i474232898/weather-predictor/internal/weather"
)

// Columns lists the header names every dataset must carry.
var Columns = []string{"date", "precipitation", "temp_max", "temp_min", "wind", "weather"}

// ErrEmpty is returned when the dataset has a header but no rows.
var ErrEmpty = errors.New("dataset has no records")

// DataFormatError describes a malformed dataset. Line is 1-based and counts
// the header; Column is empty when the problem is not tied to one field.
type DataFormatError struct {
	Line   int
	Column string
	Err    error
}

func (e *DataFormatError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("dataset: %v", e.Err)
	case e.Column == "":
		return fmt.Sprintf("dataset line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("dataset line %d, column %s: %v", e.Line, e.Column, e.Err)
	}
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// Load reads the CSV file at path.
func Load(path string) ([]weather.WeatherRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a CSV stream with a header row naming at least Columns.
// Extra columns are ignored. Month and DayOfYear are derived from the date.
func Read(r io.Reader) ([]weather.WeatherRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &DataFormatError{Err: ErrEmpty}
	}
	if err != nil {
		return nil, &DataFormatError{Line: 1, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, &DataFormatError{Line: 1, Column: col, Err: errors.New("missing column")}
		}
	}

	var records []weather.WeatherRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &DataFormatError{Line: pe.StartLine, Err: pe.Err}
			}
			return nil, &DataFormatError{Err: err}
		}
		line, _ := cr.FieldPos(0)

		rec, ferr := parseRow(row, index)
		if ferr != nil {
			ferr.Line = line
			return nil, ferr
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &DataFormatError{Err: ErrEmpty}
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (weather.WeatherRecord, *DataFormatError) {
	field := func(col string) string {
		return strings.TrimSpace(row[index[col]])
	}

	date, err := weather.ParseDate(field("date"))
	if err != nil {
		return weather.WeatherRecord{}, &DataFormatError{Column: "date", Err: err}
	}

	var nums [4]float64
	for i, col := range []string{"precipitation", "temp_max", "temp_min", "wind"} {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return weather.WeatherRecord{}, &DataFormatError{Column: col, Err: err}
		}
		nums[i] = v
	}

	category, err := weather.ParseCategory(field("weather"))
	if err != nil {
		return weather.WeatherRecord{}, &DataFormatError{Column: "weather", Err: err}
	}

	return weather.WeatherRecord{
		Date:          date,
		Precipitation: nums[0],
		TempMax:       nums[1],
		TempMin:       nums[2],
		Wind:          nums[3],
		Weather:       category,
		Month:         int(date.Month()),
		DayOfYear:     date.YearDay(),
	}, nil
}
