package health

import (
	"encoding/json"
	"net/http"
	"runtime"

	"mercator-hq/flowlog/pkg/config"
)

// VersionInfo is served on the version endpoint.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// NewVersionInfo fills in the Go runtime version.
func NewVersionInfo(version, commit, buildTime string) VersionInfo {
	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// LivenessHandler always answers 200 while the process serves requests.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, c.Liveness())
	}
}

// ReadinessHandler answers 503 when a critical check fails.
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "loki": {"status": "ok", "critical": true, "duration_ms": 3.2},
//	        "workflows": {"status": "unhealthy", "message": "no workflow definitions loaded", "critical": false}
//	    },
//	    "timestamp": "2026-01-12T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Readiness(r.Context())
		code := http.StatusOK
		if !report.Ready() {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, report)
	}
}

// VersionHandler serves info as JSON.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Register mounts the probe endpoints on mux at the configured paths. It does
// nothing when health endpoints are disabled.
func Register(mux *http.ServeMux, cfg *config.HealthConfig, checker *Checker, info VersionInfo) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	mux.Handle("GET "+pathOr(cfg.LivenessPath, config.DefaultLivenessPath), checker.LivenessHandler())
	mux.Handle("GET "+pathOr(cfg.ReadinessPath, config.DefaultReadinessPath), checker.ReadinessHandler())
	mux.Handle("GET "+pathOr(cfg.VersionPath, config.DefaultVersionPath), VersionHandler(info))
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
