package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scenario-sim/internal/httpapi"
	"scenario-sim/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		sched, err := scheduleRetention(ctx, p.recorder, cfg.Recorder.RetentionCron, cfg.Recorder.Retention)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httpapi.NewServer(p.assembler, p.metrics, Version).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// scheduleRetention registers the record pruning job. The scheduler is returned unstarted.
func scheduleRetention(ctx context.Context, rec recorder.Recorder, schedule string, retention time.Duration) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { pruneRecords(ctx, rec, retention) }); err != nil {
		return nil, err
	}
	return c, nil
}

func pruneRecords(ctx context.Context, rec recorder.Recorder, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	n, err := rec.Prune(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Record retention sweep failed")
		return
	}
	log.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("Record retention sweep finished")
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides LISTEN_ADDR)")
}
