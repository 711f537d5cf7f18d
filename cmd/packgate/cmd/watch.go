package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/packgate/internal/core/config"
	"github.com/solatis/packgate/internal/core/metrics"
	"github.com/solatis/packgate/internal/packfile"
	"github.com/solatis/packgate/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a pack directory and serve engine metrics",
	Long: `Watches the configured pack directory, reloading and re-validating packs
on change, and serves Prometheus metrics. Invalid packs are skipped so a
bad edit never evicts the previously loaded set.`,
	RunE:         runWatch,
	SilenceUsage: true,
}

var watchPackDir string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPackDir, "pack-dir", "", "pack directory to watch (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if watchPackDir != "" {
		cfg.PackDir = watchPackDir
	}

	m := metrics.New()

	var mu sync.RWMutex
	var current []*types.Pack

	watcher := packfile.NewWatcher(cfg.PackDir, logger, func(packs []*types.Pack, lintFailures int) {
		mu.Lock()
		current = packs
		mu.Unlock()
		m.ObservePackReload(lintFailures)
		logger.Info("pack set active", "count", len(packs))
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		n := len(current)
		mu.RUnlock()
		fmt.Fprintf(w, "ok %d packs\n", n)
	})
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	go func() {
		errChan <- watcher.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		srv.Close()
		return err
	case <-sigChan:
		logger.Info("shutting down")
		cancel()
		return srv.Shutdown(context.Background())
	}
}
