package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dgallion1/schemadoc/internal/api"
	"github.com/dgallion1/schemadoc/internal/directive"
	"github.com/dgallion1/schemadoc/internal/metrics"
	"github.com/dgallion1/schemadoc/internal/pipeline"
	"github.com/dgallion1/schemadoc/internal/render"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered schema packages over HTTP",
		Long: `Serve rendered schema packages, directive expansion and build jobs over
HTTP. Prometheus metrics are exposed on /metrics.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/packages/{pkg}?format=&file=&members=&excluded-members=
  POST /api/expand?filename=
  POST /api/builds
  GET  /api/builds/{jobID}
  GET  /api/stats/render`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(cmd)
			if err != nil {
				return err
			}
			if port != "" {
				env.cfg.Port = port
			}
			return runServe(cmd.Context(), env, nil)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config, 8090)")

	return cmd
}

// runServe serves until ctx is done. ready, when set, receives the bound
// address once the listener is open.
func runServe(ctx context.Context, env *env, ready chan<- string) error {
	dialect, err := render.ParseDialect(env.cfg.Format)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	gen := pipeline.NewGenerator(env.loader, env.log, m)
	orch := pipeline.NewOrchestrator(
		pipeline.NewWorker(gen, env.log, env.cfg.BaseDir(), dialect, env.cfg.BuildWorkers),
		env.log,
	)
	orch.Start(ctx)

	srv := api.NewServer(gen, directive.New(env.loader, env.log), orch, m, env.log, env.cfg)

	httpServer := &http.Server{
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+env.cfg.Port)
	if err != nil {
		orch.Stop()
		return err
	}
	env.log.Info("starting schemadoc", "addr", ln.Addr().String(), "search_path", env.cfg.SearchPath)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	env.log.Info("shutting down...")
	orch.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
