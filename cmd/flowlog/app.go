package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

// app holds what every command needs: configuration, telemetry and a Loki
// client.
type app struct {
	cfg  *config.Config
	tel  *telemetry.Telemetry
	loki *loki.Client
}

// newApp loads the configuration and builds telemetry and the Loki client.
// override, when set, adjusts the configuration before it is used. Log
// output goes to logOut.
func newApp(logOut io.Writer, override func(*config.Config) error) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return nil, err
		}
	}

	tel, err := telemetry.New(&cfg.Telemetry,
		telemetry.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		telemetry.WithLogWriter(logOut),
		telemetry.WithVerbose(verbose),
	)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(tel.Logger)

	client, err := loki.NewClient(loki.ClientConfig{
		BaseURL: cfg.Loki.BaseURL,
		Credentials: loki.Credentials{
			Username:    cfg.Loki.Username,
			Password:    cfg.Loki.Password,
			BearerToken: cfg.Loki.BearerToken,
		},
		Timeout:   cfg.Loki.Timeout,
		UserAgent: userAgent(cfg.Loki.UserAgent),
	},
		loki.WithLogger(tel.Logger),
		loki.WithTracer(tel.Tracer.Tracer()),
		loki.WithObserver(tel.Metrics),
	)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, tel: tel, loki: client}, nil
}

// userAgent appends the binary version to the configured product name
// unless the configuration already carries one.
func userAgent(configured string) string {
	if configured == "" {
		configured = config.DefaultLokiUserAgent
	}
	if strings.Contains(configured, "/") {
		return configured
	}
	return configured + "/" + Version
}

// close flushes telemetry. Errors are logged, not returned: the command has
// already produced its output.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.tel.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}
