// Package server serves the flowlog toolkit over HTTP so an external agent
// orchestrator can discover and call the tools.
//
// Routes:
//
//	GET  /v1/manifest        agent name, model, tool choice, instructions, tools
//	GET  /v1/tools           tool definitions
//	POST /v1/tools/{name}    call a tool; body is the JSON argument object
//	GET  /health /ready /version /metrics
//
// A successful call answers {"output": "..."}. Failures answer
// {"error": {"type": "...", "message": "..."}} with a status derived from the
// type:
//
//	invalid_argument, unknown_tool   400
//	unauthenticated                  401
//	body_too_large                   413
//	rate_limited                     429
//	query, parse, unreachable        502
//	timeout                          504
//	anything else                    500
//
// With server.auth enabled the /v1 routes require an API key. Tool calls are
// subject to server.limits; listing tools and the probes are not.
//
// Usage:
//
//	srv := server.New(cfg, kit, manifest, tel)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Start(ctx); err != nil {
//		return err
//	}
package server
