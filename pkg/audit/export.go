package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Export formats
const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatCSV    = "csv"
)

// Export renders records in the given format and returns the content type
func Export(records []*Record, format string) ([]byte, string, error) {
	switch format {
	case "", FormatJSON:
		data, err := exportJSON(records)
		return data, "application/json", err
	case FormatNDJSON:
		data, err := exportNDJSON(records)
		return data, "application/x-ndjson", err
	case FormatCSV:
		data, err := exportCSV(records)
		return data, "text/csv", err
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportJSON(records []*Record) ([]byte, error) {
	if records == nil {
		records = []*Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

func exportNDJSON(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
	}

	return buf.Bytes(), nil
}

func exportCSV(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"ID",
		"Timestamp",
		"Action",
		"UserID",
		"UserRole",
		"EntityType",
		"EntityID",
		"OldValue",
		"NewValue",
		"Reason",
		"RequestID",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.FormatInt(record.ID, 10),
			record.Timestamp.Format(time.RFC3339),
			record.Action,
			record.UserID,
			record.UserRole,
			record.EntityType,
			record.EntityID,
			string(record.OldValue),
			string(record.NewValue),
			record.Reason,
			record.RequestID,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
