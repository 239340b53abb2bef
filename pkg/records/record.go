// Package records turns flattened Loki entries into normalized, time-ordered
// log records ready to be handed to a consumer as JSON.
package records

import (
	"encoding/json"
	"time"
)

// Reserved field names. Record metadata owns them: payload fields with the
// same name are replaced on output.
const (
	FieldTimestamp = "timestamp"
	FieldStream    = "stream"

	// FieldLine holds the raw log line when the payload is not a JSON object
	// and normalization runs in lenient mode.
	FieldLine = "line"
)

// Record is one normalized log entry.
type Record struct {
	// Timestamp is the entry time in UTC with nanosecond precision
	Timestamp time.Time

	// Stream is the value of the "stream" label, empty when absent
	Stream string

	// Labels is the full label set of the originating stream. It is shared
	// with other records of the same stream and is not serialized.
	Labels map[string]string

	// Fields are the decoded payload fields
	Fields map[string]any
}

// MarshalJSON renders the record as a single flat object: the payload fields
// plus "timestamp" (RFC 3339, nanoseconds, UTC) and "stream".
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for key, value := range r.Fields {
		out[key] = value
	}
	out[FieldTimestamp] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	out[FieldStream] = r.Stream

	return json.Marshal(out)
}

// Marshal serializes records as a JSON array. An empty or nil slice yields
// "[]".
func Marshal(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(records)
}
