package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/records"
	"mercator-hq/flowlog/pkg/telemetry/logging"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
)

// RunLogsName is the function name of the run log tool.
const RunLogsName = "retrieve_logs_for_run"

// Querier is satisfied by *loki.Client.
type Querier interface {
	QueryRange(ctx context.Context, req loki.QueryRangeRequest) ([]loki.FlatRecord, error)
}

// RunLogs retrieves the log records of one pipeline run.
type RunLogs struct {
	querier       Querier
	query         *template.Template
	lookbackHours float64
	limit         int
	direction     loki.Direction
	step          float64
	normalize     records.Options
	logger        *slog.Logger
}

// NewRunLogs builds the tool from the runs section of the configuration.
func NewRunLogs(q Querier, cfg *config.RunsConfig, logger *slog.Logger) (*RunLogs, error) {
	if q == nil {
		return nil, fmt.Errorf("run logs: querier is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	text := cfg.QueryTemplate
	if text == "" {
		text = config.DefaultRunsQueryTemplate
	}
	tmpl, err := template.New("run_query").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &loki.ConfigError{Field: "runs.query_template", Message: err.Error()}
	}

	dirText := cfg.Direction
	if dirText == "" {
		dirText = config.DefaultRunsDirection
	}
	direction, err := loki.ParseDirection(dirText)
	if err != nil {
		return nil, &loki.ConfigError{Field: "runs.direction", Message: err.Error()}
	}

	lookback := cfg.LookbackHours
	if lookback == 0 {
		lookback = config.DefaultRunsLookbackHours
	}

	return &RunLogs{
		querier:       q,
		query:         tmpl,
		lookbackHours: lookback,
		limit:         cfg.Limit,
		direction:     direction,
		step:          cfg.StepSeconds,
		normalize:     records.Options{Strict: cfg.StrictPayloads},
		logger:        logger,
	}, nil
}

// Name implements Tool.
func (t *RunLogs) Name() string { return RunLogsName }

// Definition implements Tool.
func (t *RunLogs) Definition() Definition {
	return Definition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        RunLogsName,
			Description: "Query Loki for logs associated with a given Nextflow run name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"run_name": map[string]any{
						"type":        "string",
						"description": "The Nextflow run name, for example \"happy_turing\".",
					},
					"lookback_hours": map[string]any{
						"type":        "integer",
						"description": "How many hours back from now to search.",
						"default":     t.lookbackHours,
					},
				},
				"required":             []string{"run_name"},
				"additionalProperties": false,
			},
		},
	}
}

type runLogsArgs struct {
	RunName       string   `json:"run_name"`
	LookbackHours *float64 `json:"lookback_hours"`
}

// Call implements Tool.
func (t *RunLogs) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var a runLogsArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	lookback := t.lookbackHours
	if a.LookbackHours != nil {
		lookback = *a.LookbackHours
	}
	return t.Retrieve(ctx, a.RunName, lookback)
}

// Retrieve returns the records of runName within the last lookbackHours as a
// JSON array sorted by ascending timestamp. A run without logs yields "[]".
func (t *RunLogs) Retrieve(ctx context.Context, runName string, lookbackHours float64) (string, error) {
	recs, err := t.Records(ctx, runName, lookbackHours)
	if err != nil {
		return "", err
	}

	out, err := records.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(out), nil
}

// Records is Retrieve without the JSON encoding.
func (t *RunLogs) Records(ctx context.Context, runName string, lookbackHours float64) ([]records.Record, error) {
	runName = strings.TrimSpace(runName)
	if runName == "" {
		return nil, &loki.InvalidArgumentError{Field: "run_name", Message: "must not be empty"}
	}
	ctx = logging.WithRunName(ctx, runName)
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(tracing.AttrRunName, runName))

	query, err := t.Query(runName)
	if err != nil {
		return nil, err
	}

	flat, err := t.querier.QueryRange(ctx, loki.QueryRangeRequest{
		Query:       query,
		HoursAgo:    lookbackHours,
		StepSeconds: t.step,
		Limit:       t.limit,
		Direction:   t.direction,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve logs for run %s: %w", runName, err)
	}

	recs, err := records.Normalize(flat, t.normalize)
	if err != nil {
		return nil, fmt.Errorf("retrieve logs for run %s: %w", runName, err)
	}

	span.SetAttributes(attribute.Int(tracing.AttrRecords, len(recs)))
	t.logger.InfoContext(ctx, "retrieved run logs",
		"records", len(recs),
		"lookback_hours", lookbackHours,
	)

	return recs, nil
}

// LookbackHours returns the lookback used when a caller passes none.
func (t *RunLogs) LookbackHours() float64 {
	return t.lookbackHours
}

// Query renders the LogQL expression for runName. The name is inserted as a
// quoted, escaped string literal.
func (t *RunLogs) Query(runName string) (string, error) {
	var b strings.Builder
	if err := t.query.Execute(&b, struct{ RunName string }{RunName: QuoteString(runName)}); err != nil {
		return "", &loki.ConfigError{Field: "runs.query_template", Message: err.Error()}
	}
	return b.String(), nil
}

// QuoteString renders s as a double-quoted LogQL string literal.
func QuoteString(s string) string {
	return strconv.Quote(s)
}
