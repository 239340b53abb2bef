package loki

import (
	"strings"
)

// Direction is the order in which the backend scans a range.
type Direction string

const (
	// Forward returns the oldest entries first.
	Forward Direction = "FORWARD"

	// Backward returns the newest entries first. It is the client default.
	Backward Direction = "BACKWARD"
)

// ParseDirection parses a direction case-insensitively. An empty string
// yields Backward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Backward):
		return Backward, nil
	case string(Forward):
		return Forward, nil
	default:
		return "", &InvalidArgumentError{
			Field:   "direction",
			Message: "must be FORWARD or BACKWARD, got " + s,
		}
	}
}

// String returns the wire value.
func (d Direction) String() string {
	return string(d)
}

// DefaultStepSeconds is the query resolution step used when a request leaves
// StepSeconds unset.
const DefaultStepSeconds = 60.0

// QueryRangeRequest describes a single range query.
type QueryRangeRequest struct {
	// Query is the LogQL expression
	Query string

	// HoursAgo is the lookback window; the range always ends at now
	HoursAgo float64

	// StepSeconds is the evaluation step. Zero means DefaultStepSeconds.
	StepSeconds float64

	// Limit caps the number of returned entries. Zero sends no limit.
	Limit int

	// Direction is the scan order. Empty means Backward.
	Direction Direction
}

// ValuePair is one [timestamp, line] entry of a stream.
type ValuePair struct {
	Timestamp string
	Payload   string
}

// RawStream is one backend stream: a unique label set and its entries in the
// order the backend returned them.
type RawStream struct {
	Labels map[string]string
	Values []ValuePair
}

// FlatRecord is a single log entry with its stream labels attached. Payload
// is the raw log line and has not been decoded.
type FlatRecord struct {
	Timestamp int64             `json:"timestamp"`
	Labels    map[string]string `json:"labels"`
	Payload   string            `json:"record"`
}
