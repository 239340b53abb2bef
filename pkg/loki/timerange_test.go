package loki

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestCalculateRange(t *testing.T) {
	tests := []struct {
		name     string
		hoursAgo float64
	}{
		{name: "zero lookback", hoursAgo: 0},
		{name: "one hour", hoursAgo: 1},
		{name: "fractional hours", hoursAgo: 0.25},
		{name: "three days", hoursAgo: 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now().UnixNano()
			tr, err := CalculateRange(tt.hoursAgo)
			after := time.Now().UnixNano()
			if err != nil {
				t.Fatalf("CalculateRange(%v) returned error: %v", tt.hoursAgo, err)
			}

			if tr.Start > tr.End {
				t.Errorf("start %d is after end %d", tr.Start, tr.End)
			}

			want := int64(tt.hoursAgo * float64(time.Hour))
			if got := tr.End - tr.Start; got != want {
				t.Errorf("end - start = %d, want %d", got, want)
			}

			if tr.End < before || tr.End > after {
				t.Errorf("end %d not within clock readings [%d, %d]", tr.End, before, after)
			}
		})
	}
}

func TestCalculateRangeAt(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	tr, err := CalculateRangeAt(now, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tr.End != 1700000000000000000 {
		t.Errorf("End = %d, want 1700000000000000000", tr.End)
	}
	if tr.Start != 1700000000000000000-int64(2*time.Hour) {
		t.Errorf("Start = %d, want %d", tr.Start, 1700000000000000000-int64(2*time.Hour))
	}
	if tr.Duration() != 2*time.Hour {
		t.Errorf("Duration() = %s, want 2h", tr.Duration())
	}
}

func TestCalculateRange_InvalidArgument(t *testing.T) {
	tests := []struct {
		name     string
		hoursAgo float64
	}{
		{name: "negative", hoursAgo: -1},
		{name: "small negative", hoursAgo: -0.001},
		{name: "NaN", hoursAgo: math.NaN()},
		{name: "positive infinity", hoursAgo: math.Inf(1)},
		{name: "overflowing window", hoursAgo: 1e9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateRange(tt.hoursAgo)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var invalidArg *InvalidArgumentError
			if !errors.As(err, &invalidArg) {
				t.Fatalf("expected *InvalidArgumentError, got %T", err)
			}
			if invalidArg.Field != "hours_ago" {
				t.Errorf("Field = %q, want hours_ago", invalidArg.Field)
			}
		})
	}
}
