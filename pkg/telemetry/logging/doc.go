// Package logging builds the process logger on top of log/slog.
//
// New returns a plain *slog.Logger whose handler:
//   - writes JSON or text at the configured level
//   - adds request_id, trace_id, tool, run_name and workflow from the context
//     passed to the *Context logging methods
//   - optionally redacts credentials: attributes whose key names a secret
//     (password, token, authorization, ...) are replaced with "***", and
//     string values are scrubbed of bearer tokens, basic credentials, URL
//     userinfo and password=value pairs
//
// Usage:
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunName(ctx, "happy_euler")
//	logger.InfoContext(ctx, "retrieving logs") // includes run_name
package logging
