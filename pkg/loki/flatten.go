package loki

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// maxRawResponse bounds the body kept on a ParseError.
const maxRawResponse = 4096

// FlattenResponse decodes a query_range response body and flattens it into
// records. Only a body that is not JSON at all is an error; every other shape
// mismatch yields fewer (possibly zero) records.
func FlattenResponse(body []byte) ([]FlatRecord, error) {
	streams, _, err := decodeStreams(body)
	if err != nil {
		return nil, err
	}
	records, _ := flatten(streams)
	return records, nil
}

// DecodeStreams extracts data.result from a query_range response body.
//
// Missing or ill-typed "data", "data.result", "stream" and "values" fields
// are treated as empty. Value entries that are not exactly a
// [timestamp, line] pair are dropped.
func DecodeStreams(body []byte) ([]RawStream, error) {
	streams, _, err := decodeStreams(body)
	return streams, err
}

// Flatten emits one FlatRecord per value pair, in stream order then value
// order. Entries whose timestamp is not a base-10 integer are dropped.
//
// Records of the same stream share one Labels map; treat it as read-only.
func Flatten(streams []RawStream) []FlatRecord {
	records, _ := flatten(streams)
	return records
}

// decodeStreams returns the decoded streams and the number of dropped value
// entries.
func decodeStreams(body []byte) ([]RawStream, int, error) {
	doc, err := decodeJSON(body)
	if err != nil {
		raw := body
		if len(raw) > maxRawResponse {
			raw = raw[:maxRawResponse]
		}
		return nil, 0, &ParseError{RawResponse: string(raw), Cause: err}
	}

	result := asArray(field(field(doc, "data"), "result"))
	streams := make([]RawStream, 0, len(result))
	dropped := 0

	for _, entry := range result {
		stream := RawStream{
			Labels: decodeLabels(field(entry, "stream")),
		}

		values := asArray(field(entry, "values"))
		stream.Values = make([]ValuePair, 0, len(values))
		for _, v := range values {
			pair, ok := decodePair(v)
			if !ok {
				dropped++
				continue
			}
			stream.Values = append(stream.Values, pair)
		}

		streams = append(streams, stream)
	}

	return streams, dropped, nil
}

func flatten(streams []RawStream) ([]FlatRecord, int) {
	total := 0
	for _, s := range streams {
		total += len(s.Values)
	}

	records := make([]FlatRecord, 0, total)
	dropped := 0

	for _, s := range streams {
		for _, v := range s.Values {
			ts, err := strconv.ParseInt(v.Timestamp, 10, 64)
			if err != nil {
				dropped++
				continue
			}
			records = append(records, FlatRecord{
				Timestamp: ts,
				Labels:    s.Labels,
				Payload:   v.Payload,
			})
		}
	}

	return records, dropped
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number
// so nanosecond timestamps sent as numbers survive without float rounding.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response body")
		}
		return nil, err
	}

	// Reject trailing data after the top-level value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}

	return doc, nil
}

func decodeLabels(v any) map[string]string {
	obj, _ := v.(map[string]any)
	labels := make(map[string]string, len(obj))
	for key, value := range obj {
		if s, ok := value.(string); ok {
			labels[key] = s
		}
	}
	return labels
}

func decodePair(v any) (ValuePair, bool) {
	entry, ok := v.([]any)
	if !ok || len(entry) != 2 {
		return ValuePair{}, false
	}

	var ts string
	switch t := entry[0].(type) {
	case string:
		ts = t
	case json.Number:
		ts = t.String()
	default:
		return ValuePair{}, false
	}

	payload, ok := entry[1].(string)
	if !ok {
		return ValuePair{}, false
	}

	return ValuePair{Timestamp: ts, Payload: payload}, true
}

func field(v any, key string) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return obj[key]
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}
