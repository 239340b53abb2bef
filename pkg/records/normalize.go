package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"mercator-hq/flowlog/pkg/loki"
)

// Options controls payload handling.
type Options struct {
	// Strict rejects payloads that are not JSON objects. When false the raw
	// line is kept under FieldLine.
	Strict bool
}

// PayloadError reports a payload that is not a JSON object in strict mode.
type PayloadError struct {
	// Index is the position of the entry in the flattened input
	Index int

	// Timestamp is the entry timestamp in Unix nanoseconds
	Timestamp int64

	// Cause is the decode error
	Cause error
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("record %d (ts %d): payload is not a JSON object: %v", e.Index, e.Timestamp, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *PayloadError) Unwrap() error {
	return e.Cause
}

var errNotObject = errors.New("payload is valid JSON but not an object")

// Normalize decodes each payload, attaches the timestamp and stream label,
// and returns the records sorted by ascending timestamp. Entries with equal
// timestamps keep their input order.
func Normalize(flat []loki.FlatRecord, opts Options) ([]Record, error) {
	out := make([]Record, 0, len(flat))

	for i, f := range flat {
		fields, err := decodeObject(f.Payload)
		if err != nil {
			if opts.Strict {
				return nil, &PayloadError{Index: i, Timestamp: f.Timestamp, Cause: err}
			}
			fields = map[string]any{FieldLine: f.Payload}
		}

		// Reserved names belong to the record metadata.
		delete(fields, FieldTimestamp)
		delete(fields, FieldStream)

		out = append(out, Record{
			Timestamp: time.Unix(0, f.Timestamp).UTC(),
			Stream:    f.Labels[FieldStream],
			Labels:    f.Labels,
			Fields:    fields,
		})
	}

	SortByTime(out)

	return out, nil
}

// SortByTime sorts records in place by ascending timestamp. The sort is
// stable.
func SortByTime(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// decodeObject decodes payload as exactly one JSON object. Numbers stay
// json.Number so large integers keep their precision.
func decodeObject(payload string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}
