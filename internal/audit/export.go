package audit

import (
	"bytes"
	"encoding/csv"
	"time"
)

// CSVExporter serialises timeline rows for download.
type CSVExporter struct{}

// WriteCSV menulis baris timeline sebagai CSV dengan header tetap.
func (CSVExporter) WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"occurred_at", "actor", "action", "entity_type", "entity_id", "ip_address"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			row.Actor,
			row.Action,
			row.EntityType,
			row.EntityID,
			row.IPAddress,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
