// Package tools exposes flowlog's retrieval functions to an external agent.
//
// Two tools are provided:
//
//   - retrieve_logs_for_run(run_name, lookback_hours = 72): runs the
//     configured LogQL query for a pipeline run and returns its records as a
//     JSON array sorted by timestamp
//   - retrieve_workflow_definition(workflow_file): returns a workflow's
//     source text, or "Workflow definition for <name> not found."
//
// A Toolkit registers tools by name, publishes their JSON-schema definitions
// and dispatches calls with JSON arguments:
//
//	runLogs, err := tools.NewRunLogs(client, &cfg.Runs, logger)
//	if err != nil {
//		return err
//	}
//	kit, err := tools.NewToolkit([]tools.Tool{
//		runLogs,
//		tools.NewWorkflowDefinition(store, logger),
//	}, tools.WithRecorder(collector), tools.WithTracer(tracer))
//
//	out, err := kit.Invoke(ctx, "retrieve_logs_for_run", json.RawMessage(`{"run_name":"happy_turing"}`))
//
// Failed retrievals are returned as errors, never as empty output. ErrorType
// classifies them for callers that map errors to status codes.
package tools
