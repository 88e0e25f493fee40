package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"structural-credit/internal/model"
)

const (
	colDate     = "date"
	colFirm     = "firm_id"
	colEquity   = "equity_value"
	colVol      = "equity_vol"
	colDebt     = "debt"
	colRate     = "risk_free_rate"
	colMaturity = "time_to_maturity"
)

var requiredColumns = []string{colDate, colFirm, colEquity, colVol, colDebt, colRate}

// LoadObservationsCSV reads pre-aligned observations. Column order is free; the
// time_to_maturity column is optional and defaultT fills it when absent or empty.
func LoadObservationsCSV(path string, defaultT float64) ([]model.MarketObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obs, err := ReadObservationsCSV(f, defaultT)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

func ReadObservationsCSV(in io.Reader, defaultT float64) ([]model.MarketObservation, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	maturityCol, hasMaturity := cols[colMaturity]

	var out []model.MarketObservation
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := ParseDate(row[cols[colDate]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		o := model.MarketObservation{FirmID: strings.TrimSpace(row[cols[colFirm]]), Date: date, T: defaultT}

		fields := []struct {
			col string
			dst *float64
		}{
			{colEquity, &o.E},
			{colVol, &o.SigmaE},
			{colDebt, &o.D},
			{colRate, &o.R},
		}
		for _, fd := range fields {
			if *fd.dst, err = parseCell(row[cols[fd.col]]); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, fd.col, err)
			}
		}
		if hasMaturity && strings.TrimSpace(row[maturityCol]) != "" {
			if o.T, err = parseCell(row[maturityCol]); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, colMaturity, err)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// parseCell maps an empty cell (or NA/NaN) to NaN so the row is kept and classified
// as invalid input instead of failing the whole file.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
