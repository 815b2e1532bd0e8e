package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvColumns is the canonical bar CSV layout:
//
//	date,symbol,open,high,low,close,volume
//
// date is YYYY-MM-DD or RFC3339. A header row (first cell "date") is allowed.
var csvColumns = []string{"date", "symbol", "open", "high", "low", "close", "volume"}

// LoadCSV reads bars from a CSV file.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses bar rows from r. Empty rows are skipped; malformed rows
// fail the whole read with the offending line number.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}

		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

func parseRow(row []string) (Bar, error) {
	if len(row) < len(csvColumns) {
		return Bar{}, fmt.Errorf("bad row (need %s): %v", strings.Join(csvColumns, ","), row)
	}

	d, err := ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	for i := range vals {
		raw := strings.TrimSpace(row[i+2])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", csvColumns[i+2], raw, err)
		}
		vals[i] = v
	}

	return Bar{
		Date:   d,
		Symbol: strings.TrimSpace(row[1]),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// WriteCSV writes bars in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			FormatDate(b.Date),
			b.Symbol,
			f(b.Open),
			f(b.High),
			f(b.Low),
			f(b.Close),
			f(b.Volume),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
