package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"structural-credit/internal/model"
)

var recordHeader = []string{
	"date",
	"firm_id",
	"E",
	"sigma_E",
	"D",
	"r",
	"T",
	"V",
	"sigma_V",
	"DD",
	"PD",
	"PD_smoothed",
	"status",
	"reason",
	"iterations",
}

// WriteRecordsCSV writes records to path, creating parent directories.
func WriteRecordsCSV(path string, records []model.RiskRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteRecords(f, records)
}

// WriteRecords writes the CSV ledger. Undefined numbers become empty cells.
func WriteRecords(out io.Writer, records []model.RiskRecord) error {
	w := csv.NewWriter(out)

	if err := w.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			fmtDate(r.Date),
			r.FirmID,
			fmtFloat(r.E),
			fmtFloat(r.SigmaE),
			fmtFloat(r.D),
			fmtFloat(r.R),
			fmtFloat(r.T),
			fmtFloat(r.V),
			fmtFloat(r.SigmaV),
			fmtFloat(r.DD),
			fmtFloat(r.PD),
			fmtFloat(r.PDSmoothed),
			string(r.Status),
			string(r.Reason),
			strconv.Itoa(r.Iterations),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
