package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/flowlog/pkg/cli"
	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/server"
	"mercator-hq/flowlog/pkg/telemetry/health"
	"mercator-hq/flowlog/pkg/tools"
	"mercator-hq/flowlog/pkg/workflows"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tool server",
	Long: `Start the HTTP tool server. It publishes the agent manifest and the
retrieve_logs_for_run and retrieve_workflow_definition tools for an external
orchestrator, together with health, readiness, version and metrics endpoints.

Examples:
  # Start with defaults and FLOWLOG_* environment
  flowlog serve

  # Start with a config file and a different port
  flowlog serve --config /etc/flowlog/config.yaml --listen :9090

  # Validate the configuration and the agent instructions only
  flowlog serve --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func applyServeOverrides(cfg *config.Config) error {
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	return config.Validate(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr(), applyServeOverrides)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	catalog, err := workflows.Open(ctx, &a.cfg.Workflows, a.tel.Logger,
		workflows.WithReloadObserver(a.tel.Metrics),
	)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	runLogs, err := tools.NewRunLogs(a.loki, &a.cfg.Runs, a.tel.Logger)
	if err != nil {
		return err
	}
	kit, err := tools.NewToolkit(
		[]tools.Tool{runLogs, tools.NewWorkflowDefinition(catalog, a.tel.Logger)},
		tools.WithRecorder(a.tel.Metrics),
		tools.WithTracer(a.tel.Tracer.Tracer()),
		tools.WithLogger(a.tel.Logger),
	)
	if err != nil {
		return err
	}
	manifest, err := tools.NewManifest(&a.cfg.Agent, kit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintf(out, "✓ Configuration valid (%d workflows, tools: %v)\n", len(catalog.Names()), kit.Names())
		return nil
	}

	a.tel.Health.Register("loki", health.LokiCheck(a.loki))
	a.tel.Health.RegisterOptional("workflows", health.CatalogCheck(catalog))

	srv := server.New(a.cfg, kit, manifest, a.tel)

	fmt.Fprintf(out, "flowlog %s\n", Version)
	fmt.Fprintf(out, "✓ Loki: %s\n", a.loki.BaseURL())
	fmt.Fprintf(out, "✓ Workflows: %d loaded from %s\n", len(catalog.Names()), catalog.Dir())
	fmt.Fprintf(out, "✓ Tool server listening on %s\n", a.cfg.Server.ListenAddress)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return catalog.Run(gctx)
	})
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
