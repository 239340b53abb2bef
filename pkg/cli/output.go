package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"mercator-hq/flowlog/pkg/records"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is one human readable line per record (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output with one column per payload field.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unknown format %q (want text, json or csv)", s))
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter renders records as
//
//	2023-11-14T22:13:20Z stdout event=process_started process=FASTQC
//
// Payload fields follow in key order. Anything that is not a record slice is
// printed with %v.
type TextFormatter struct{}

// FormatTo writes data to w in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	recs, ok := data.([]records.Record)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	for _, rec := range recs {
		var sb strings.Builder
		sb.WriteString(rec.Timestamp.UTC().Format(time.RFC3339Nano))
		if rec.Stream != "" {
			sb.WriteByte(' ')
			sb.WriteString(rec.Stream)
		}
		for _, key := range sortedKeys(rec.Fields) {
			sb.WriteByte(' ')
			sb.WriteString(key)
			sb.WriteByte('=')
			sb.WriteString(textValue(rec.Fields[key]))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format. A nil record slice is written
// as [] rather than null.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	if recs, ok := data.([]records.Record); ok && recs == nil {
		data = []records.Record{}
	}
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats records as CSV. The header is timestamp, stream and
// the sorted union of payload field names.
type CSVFormatter struct{}

// FormatTo writes data to w in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	recs, ok := data.([]records.Record)
	if !ok {
		return fmt.Errorf("csv output supports log records only, got %T", data)
	}

	seen := make(map[string]struct{})
	for _, rec := range recs {
		for key := range rec.Fields {
			if key == records.FieldTimestamp || key == records.FieldStream {
				continue
			}
			seen[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	csvWriter := csv.NewWriter(w)
	header := append([]string{records.FieldTimestamp, records.FieldStream}, columns...)
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, rec := range recs {
		row[0] = rec.Timestamp.UTC().Format(time.RFC3339Nano)
		row[1] = rec.Stream
		for i, key := range columns {
			row[i+2] = ""
			if v, ok := rec.Fields[key]; ok {
				row[i+2] = textValue(v)
			}
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		if key == records.FieldTimestamp || key == records.FieldStream {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// textValue prints scalars bare and nested values as compact JSON.
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
