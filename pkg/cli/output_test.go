package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"mercator-hq/flowlog/pkg/records"
)

func testRecords() []records.Record {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	return []records.Record{
		{
			Timestamp: ts,
			Stream:    "stdout",
			Fields:    map[string]any{"event": "process_started", "process": "FASTQC", "attempt": float64(1)},
		},
		{
			Timestamp: ts.Add(1500 * time.Millisecond),
			Stream:    "stderr",
			Fields:    map[string]any{"event": "error", "trace": map[string]any{"exit": float64(137)}},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{
			name: "records",
			data: testRecords(),
			want: "2023-11-14T22:13:20Z stdout attempt=1 event=process_started process=FASTQC\n" +
				"2023-11-14T22:13:21.5Z stderr event=error trace={\"exit\":137}\n",
		},
		{"no records", []records.Record{}, ""},
		{"plain value", "unreliable-exome", "unreliable-exome\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TextFormatter{}).FormatTo(&buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewFormatter(FormatJSON).FormatTo(&buf, testRecords()); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}

		var out []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 objects, got %d", len(out))
		}
		if out[0]["timestamp"] != "2023-11-14T22:13:20Z" || out[0]["stream"] != "stdout" {
			t.Errorf("unexpected first record: %v", out[0])
		}
	})

	t.Run("nil records", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&JSONFormatter{}).FormatTo(&buf, []records.Record(nil)); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		if buf.String() != "[]\n" {
			t.Errorf("got %q, want %q", buf.String(), "[]\n")
		}
	})
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatCSV).FormatTo(&buf, testRecords()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"timestamp", "stream", "attempt", "event", "process", "trace"},
		{"2023-11-14T22:13:20Z", "stdout", "1", "process_started", "FASTQC", ""},
		{"2023-11-14T22:13:21.5Z", "stderr", "", "error", "", `{"exit":137}`},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v", rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestCSVFormatter_RejectsOtherData(t *testing.T) {
	if err := (&CSVFormatter{}).FormatTo(&bytes.Buffer{}, "text"); err == nil {
		t.Error("expected an error for non-record data")
	}
}
