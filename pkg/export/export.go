// Package export writes KPI reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/cabmatch/core/metrics/kpi"
)

// WriteJSON writes the records to w in JSON format.
func WriteJSON(w io.Writer, records []kpi.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes one row per record with the derived rates.
func WriteCSV(w io.Writer, records []kpi.Record) error {
	cw := csv.NewWriter(w)
	header := []string{"day", "category", "requests", "matched", "match_rate", "avg_fare", "avg_pickup_km"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Date.Format("2006-01-02"),
			string(r.Category),
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Matched),
			strconv.FormatFloat(r.MatchRate(), 'f', 4, 64),
			strconv.FormatFloat(r.AvgFare(), 'f', 2, 64),
			strconv.FormatFloat(r.AvgPickupKm(), 'f', 3, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
