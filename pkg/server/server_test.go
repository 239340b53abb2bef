package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/flowlog/internal/lokitest"
	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/telemetry"
	"mercator-hq/flowlog/pkg/telemetry/health"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
	"mercator-hq/flowlog/pkg/tools"
	"mercator-hq/flowlog/pkg/workflows"
)

type testEnv struct {
	loki   *lokitest.MockServer
	server *Server
	http   *httptest.Server
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	mock := lokitest.NewMockServer()
	t.Cleanup(mock.Close)

	cfg := config.Default()
	cfg.Loki.BaseURL = mock.URL()
	cfg.Agent.Instructions = "Investigate failed runs."
	cfg.Server.MaxBodyBytes = 256
	if mutate != nil {
		mutate(cfg)
	}

	tel, err := telemetry.New(&cfg.Telemetry, telemetry.BuildInfo{Version: "test"},
		telemetry.WithLogWriter(io.Discard),
		telemetry.WithTracerOptions(tracing.WithExporter(tracetest.NewInMemoryExporter()), tracing.WithoutGlobal()),
	)
	if err != nil {
		t.Fatalf("telemetry.New failed: %v", err)
	}

	client, err := loki.NewClient(loki.ClientConfig{BaseURL: mock.URL(), Timeout: 300 * time.Millisecond},
		loki.WithObserver(tel.Metrics),
		loki.WithLogger(tel.Logger),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	catalog := workflows.NewCatalog(".nf", workflows.Definition{Name: "unreliable-exome", Source: "workflow {}\n"})
	tel.Health.Register("loki", health.LokiCheck(client))
	tel.Health.RegisterOptional("workflows", health.CatalogCheck(catalog))

	runLogs, err := tools.NewRunLogs(client, &cfg.Runs, tel.Logger)
	if err != nil {
		t.Fatalf("NewRunLogs failed: %v", err)
	}
	kit, err := tools.NewToolkit([]tools.Tool{runLogs, tools.NewWorkflowDefinition(catalog, tel.Logger)},
		tools.WithRecorder(tel.Metrics),
		tools.WithLogger(tel.Logger),
	)
	if err != nil {
		t.Fatalf("NewToolkit failed: %v", err)
	}
	manifest, err := tools.NewManifest(&cfg.Agent, kit)
	if err != nil {
		t.Fatalf("NewManifest failed: %v", err)
	}

	srv := New(cfg, kit, manifest, tel)
	handler, err := srv.Handler()
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	hs := httptest.NewServer(handler)
	t.Cleanup(hs.Close)

	return &testEnv{loki: mock, server: srv, http: hs}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return resp, data
}

func decodeError(t *testing.T, data []byte) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("invalid error body %q: %v", data, err)
	}
	return body.Error
}

func TestServer_Manifest(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodGet, "/v1/manifest", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var m tools.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m.Name != "Workflow Observability Agent" || m.ToolChoice != "required" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if m.Instructions != "Investigate failed runs." {
		t.Errorf("instructions = %q", m.Instructions)
	}
	if len(m.Tools) != 2 {
		t.Errorf("expected 2 tools, got %d", len(m.Tools))
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestServer_Tools(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodGet, "/v1/tools", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var defs []tools.Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(defs) != 2 || defs[0].Function.Name != tools.RunLogsName {
		t.Errorf("unexpected definitions: %+v", defs)
	}
}

func TestServer_InvokeRunLogs(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loki.SetQueryRangeResponse(lokitest.StreamsResponse(
		lokitest.Stream(map[string]string{"stream": "stdout"},
			"1700000000000000000", `{"event":"process_started"}`,
		),
	))

	resp, data := env.do(t, http.MethodPost, "/v1/tools/retrieve_logs_for_run", `{"run_name":"happy_turing"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}

	var body InvokeResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := `[{"event":"process_started","stream":"stdout","timestamp":"2023-11-14T22:13:20Z"}]`
	if body.Output != want {
		t.Errorf("output = %s, want %s", body.Output, want)
	}
}

func TestServer_InvokeWorkflowDefinition(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		args string
		want string
	}{
		{`{"workflow_file":"unreliable-exome.nf"}`, "workflow {}\n"},
		{`{"workflow_file":"other"}`, "Workflow definition for other not found."},
	}

	for _, tt := range tests {
		resp, data := env.do(t, http.MethodPost, "/v1/tools/retrieve_workflow_definition", tt.args)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
		}
		var body InvokeResponse
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body.Output != tt.want {
			t.Errorf("output = %q, want %q", body.Output, tt.want)
		}
	}
}

func TestServer_InvokeErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		lokiResp   *lokitest.MockResponse
		wantStatus int
		wantType   string
	}{
		{
			name:       "unknown tool",
			path:       "/v1/tools/drop_tables",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantType:   tools.ErrorTypeUnknownTool,
		},
		{
			name:       "malformed body",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       `{"run_name":`,
			wantStatus: http.StatusBadRequest,
			wantType:   loki.ErrorTypeInvalidArgument,
		},
		{
			name:       "missing run name",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantType:   loki.ErrorTypeInvalidArgument,
		},
		{
			name:       "body too large",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       `{"run_name":"` + strings.Repeat("x", 300) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   ErrorTypeBodyTooLarge,
		},
		{
			name:       "backend rejects query",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       `{"run_name":"happy_turing"}`,
			lokiResp:   &lokitest.MockResponse{StatusCode: http.StatusInternalServerError, Body: "boom"},
			wantStatus: http.StatusBadGateway,
			wantType:   loki.ErrorTypeQuery,
		},
		{
			name:       "backend returns garbage",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       `{"run_name":"happy_turing"}`,
			lokiResp:   &lokitest.MockResponse{StatusCode: http.StatusOK, Body: "<html>"},
			wantStatus: http.StatusBadGateway,
			wantType:   loki.ErrorTypeParse,
		},
		{
			name:       "backend too slow",
			path:       "/v1/tools/retrieve_logs_for_run",
			body:       `{"run_name":"happy_turing"}`,
			lokiResp:   &lokitest.MockResponse{StatusCode: http.StatusOK, Body: "{}", Delay: 2 * time.Second},
			wantStatus: http.StatusGatewayTimeout,
			wantType:   loki.ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if tt.lokiResp != nil {
				env.loki.SetResponse(loki.QueryRangePath, *tt.lokiResp)
			}

			resp, data := env.do(t, http.MethodPost, tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, data)
			}
			if got := decodeError(t, data).Type; got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/v1/tools/retrieve_logs_for_run", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_Probes(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp, data := env.do(t, http.MethodGet, "/ready", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status = %d, body %s", resp.StatusCode, data)
	}

	env.loki.SetResponse(loki.ReadyPath, lokitest.MockResponse{StatusCode: http.StatusServiceUnavailable, Body: "Ingester not ready"})
	resp, data = env.do(t, http.MethodGet, "/ready", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, body %s", resp.StatusCode, data)
	}

	resp, data = env.do(t, http.MethodGet, "/version", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(data, []byte(`"version":"test"`)) {
		t.Errorf("/version = %d %s", resp.StatusCode, data)
	}
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loki.SetQueryRangeResponse(lokitest.StreamsResponse())

	env.do(t, http.MethodPost, "/v1/tools/retrieve_logs_for_run", `{"run_name":"happy_turing"}`)

	resp, data := env.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`flowlog_tool_invocations_total{outcome="success",tool="retrieve_logs_for_run"} 1`,
		`flowlog_loki_queries_total{direction="FORWARD",outcome="success"} 1`,
		`flowlog_http_requests_total`,
	} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = false
	})

	resp, _ := env.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Gzip(t *testing.T) {
	env := newTestEnv(t, nil)
	lines := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		lines = append(lines, "1700000000000000000", `{"event":"process_progress","process":"ALIGN"}`)
	}
	env.loki.SetQueryRangeResponse(lokitest.StreamsResponse(lokitest.Stream(map[string]string{"stream": "stdout"}, lines...)))

	req, err := http.NewRequest(http.MethodPost, env.http.URL+"/v1/tools/retrieve_logs_for_run", strings.NewReader(`{"run_name":"r"}`))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	transport := &http.Transport{DisableCompression: true}
	resp, err := (&http.Client{Transport: transport}).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q", resp.Header.Get("Content-Encoding"))
	}
}

func TestServer_APIKeyAuth(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.Auth = config.ServerAuthConfig{Enabled: true, APIKeys: []string{"orchestrator-key"}}
	})

	resp, data := env.do(t, http.MethodGet, "/v1/tools", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d", resp.StatusCode)
	}
	if got := decodeError(t, data).Type; got != ErrorTypeUnauthenticated {
		t.Errorf("type = %q", got)
	}

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/v1/tools", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer orchestrator-key")
	authed, err := env.http.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Errorf("status with key = %d", authed.StatusCode)
	}

	if resp, _ := env.do(t, http.MethodGet, "/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("liveness must not require a key, got %d", resp.StatusCode)
	}
}

func TestServer_InvokeRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.Limits = config.ServerLimitsConfig{RequestsPerSecond: 0.01, Burst: 1}
	})

	body := `{"workflow_file":"unreliable-exome"}`
	if resp, _ := env.do(t, http.MethodPost, "/v1/tools/retrieve_workflow_definition", body); resp.StatusCode != http.StatusOK {
		t.Fatalf("first call status = %d", resp.StatusCode)
	}

	resp, data := env.do(t, http.MethodPost, "/v1/tools/retrieve_workflow_definition", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second call status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After")
	}
	if got := decodeError(t, data).Type; got != ErrorTypeRateLimited {
		t.Errorf("type = %q", got)
	}

	if resp, _ := env.do(t, http.MethodGet, "/v1/tools", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("listing tools must not be rate limited, got %d", resp.StatusCode)
	}
}

func TestStatusForErrorType(t *testing.T) {
	tests := []struct {
		errType string
		want    int
	}{
		{loki.ErrorTypeInvalidArgument, http.StatusBadRequest},
		{tools.ErrorTypeUnknownTool, http.StatusBadRequest},
		{ErrorTypeBodyTooLarge, http.StatusRequestEntityTooLarge},
		{ErrorTypeUnauthenticated, http.StatusUnauthorized},
		{ErrorTypeRateLimited, http.StatusTooManyRequests},
		{loki.ErrorTypeQuery, http.StatusBadGateway},
		{loki.ErrorTypeParse, http.StatusBadGateway},
		{loki.ErrorTypeUnreachable, http.StatusBadGateway},
		{loki.ErrorTypeTimeout, http.StatusGatewayTimeout},
		{loki.ErrorTypeConfig, http.StatusInternalServerError},
		{loki.ErrorTypeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForErrorType(tt.errType); got != tt.want {
			t.Errorf("StatusForErrorType(%s) = %d, want %d", tt.errType, got, tt.want)
		}
	}
}

func TestServer_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	deadline := time.Now().Add(5 * time.Second)
	for !env.server.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + env.server.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if env.server.IsRunning() {
		t.Error("expected server to be stopped")
	}
}
