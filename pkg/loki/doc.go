// Package loki implements a minimal client for Loki range queries.
//
// # Overview
//
// The client converts a relative lookback window into an absolute nanosecond
// range, issues a single authenticated GET against /loki/api/v1/query_range,
// and flattens the nested stream response into FlatRecord values.
//
// The client never retries, caches or paginates. Each call performs exactly
// one request and keeps no connection open afterwards. A Client holds only
// immutable configuration and may be shared between goroutines.
//
// # Basic Usage
//
//	client, err := loki.NewClient(loki.ClientConfig{
//	    BaseURL: "http://loki:3100",
//	    Credentials: loki.Credentials{
//	        BearerToken: os.Getenv("LOKI_TOKEN"),
//	    },
//	    Timeout: 10 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//
//	records, err := client.QueryRange(ctx, loki.QueryRangeRequest{
//	    Query:     `{source="nextflow"} | json`,
//	    HoursAgo:  24,
//	    Limit:     5000,
//	    Direction: loki.Forward,
//	})
//
// # Time Ranges
//
// CalculateRange reads the clock once and returns [now-hoursAgo, now] in Unix
// nanoseconds. Negative, NaN and infinite lookbacks are rejected with an
// InvalidArgumentError.
//
// # Response Flattening
//
// Decoding is schema-tolerant. A body that is not JSON yields a ParseError,
// but missing "data", "data.result", "stream" or "values" fields simply
// produce fewer records, and value entries that are not [timestamp, line]
// pairs are dropped. Records keep backend order; sorting by time is the
// caller's job (see package records).
//
// # Error Handling
//
// All failures are typed:
//
//   - InvalidArgumentError: bad caller input (negative lookback, bad direction)
//   - ConfigError: empty base URL, conflicting credentials
//   - UnreachableError: DNS, connection and timeout failures
//   - QueryError: non-2xx status, with status code and body
//   - ParseError: malformed JSON on a 2xx response
//
// ErrorType maps any of them to a short stable label.
package loki
