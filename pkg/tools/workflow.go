package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/flowlog/pkg/telemetry/logging"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
	"mercator-hq/flowlog/pkg/workflows"
)

// WorkflowDefinitionName is the function name of the workflow tool.
const WorkflowDefinitionName = "retrieve_workflow_definition"

// Describer is satisfied by *workflows.Store and *workflows.Catalog.
type Describer interface {
	Lookup(name string) (workflows.Definition, bool)
	Describe(name string) string
}

// WorkflowDefinition returns the source text of a workflow.
type WorkflowDefinition struct {
	catalog Describer
	logger  *slog.Logger
}

// NewWorkflowDefinition creates the tool over catalog.
func NewWorkflowDefinition(catalog Describer, logger *slog.Logger) *WorkflowDefinition {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowDefinition{catalog: catalog, logger: logger}
}

// Name implements Tool.
func (t *WorkflowDefinition) Name() string { return WorkflowDefinitionName }

// Definition implements Tool.
func (t *WorkflowDefinition) Definition() Definition {
	return Definition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        WorkflowDefinitionName,
			Description: "Retrieve the Nextflow workflow definition for a given workflow file name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workflow_file": map[string]any{
						"type":        "string",
						"description": "Workflow name, with or without the .nf extension.",
					},
				},
				"required":             []string{"workflow_file"},
				"additionalProperties": false,
			},
		},
	}
}

type workflowArgs struct {
	WorkflowFile string `json:"workflow_file"`
}

// Call implements Tool. An unknown workflow is not an error: the output is
// the not-found sentinel text.
func (t *WorkflowDefinition) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var a workflowArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	return t.Retrieve(ctx, a.WorkflowFile), nil
}

// Retrieve returns the definition of workflowFile or the not-found sentinel.
func (t *WorkflowDefinition) Retrieve(ctx context.Context, workflowFile string) string {
	ctx = logging.WithWorkflow(ctx, workflowFile)
	_, found := t.catalog.Lookup(workflowFile)
	out := t.catalog.Describe(workflowFile)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(tracing.AttrWorkflow, workflowFile),
		attribute.Bool(tracing.AttrFound, found),
	)
	t.logger.DebugContext(ctx, "retrieved workflow definition", "found", found, "bytes", len(out))
	return out
}
