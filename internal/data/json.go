package data

import (
	"encoding/json"
	"fmt"
	"os"

	"structural-credit/internal/model"
)

// LoadObservationsJSON reads a JSON array of ObservationRecord.
func LoadObservationsJSON(path string, defaultT float64) ([]model.MarketObservation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []ObservationRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ConvertRecords(records, defaultT)
}

func ConvertRecords(records []ObservationRecord, defaultT float64) ([]model.MarketObservation, error) {
	out := make([]model.MarketObservation, 0, len(records))
	for i, r := range records {
		o, err := r.ToObservation(defaultT)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}
