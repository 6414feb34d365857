// Command cdbserver serves position-keyed cloud evaluation lookups
// from a prebuilt key/value store over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hailam/cdbserver/internal/cdbstore"
	"github.com/hailam/cdbserver/internal/dispatch"
	"github.com/hailam/cdbserver/internal/httpapi"
	"github.com/hailam/cdbserver/internal/pv"
)

type config struct {
	storePath     string
	listenAddr    string
	blockCacheMB  int64
	numCompactors int
	poolSize      int
	maxPlies      int
	devLogging    bool
}

func main() {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "cdbserver",
		Short: "Serve cloud-evaluation lookups from a prebuilt position database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.storePath, "store", "", "path to the prebuilt key/value database (required)")
	flags.StringVar(&cfg.listenAddr, "listen", ":8080", "HTTP listen address")
	flags.Int64Var(&cfg.blockCacheMB, "block-cache-mb", 256, "block cache size in MB")
	flags.IntVar(&cfg.numCompactors, "compactors", 0, "background compactor count (0 = library default)")
	flags.IntVar(&cfg.poolSize, "workers", 0, "blocking worker pool size (0 = GOMAXPROCS)")
	flags.IntVar(&cfg.maxPlies, "max-plies", 40, "maximum PV length in plies (0 = unbounded)")
	flags.BoolVar(&cfg.devLogging, "dev", false, "use human-readable development logging")
	root.MarkFlagRequired("store")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	log, err := newLogger(cfg.devLogging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	store, err := cdbstore.Open(cdbstore.Options{
		Path:          cfg.storePath,
		ReadOnly:      true,
		BlockCacheMB:  cfg.blockCacheMB,
		NumCompactors: cfg.numCompactors,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	maxLen := pv.Unbounded
	if cfg.maxPlies > 0 {
		maxLen = cfg.maxPlies
	}
	d := dispatch.New(store, cfg.poolSize, maxLen)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	httpapi.NewServer(d, log).Routes(r)

	srv := &http.Server{Addr: cfg.listenAddr, Handler: r}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.listenAddr), zap.String("store", cfg.storePath))
		serveErr <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
