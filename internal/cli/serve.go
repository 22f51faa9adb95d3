package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LeJamon/ripplecalc/internal/config"
	"github.com/LeJamon/ripplecalc/internal/feed"
	rpcgrpc "github.com/LeJamon/ripplecalc/internal/grpc"
	"github.com/LeJamon/ripplecalc/internal/metrics"
	"github.com/LeJamon/ripplecalc/internal/settle"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/LeJamon/ripplecalc/internal/storage/ledgerstore"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the settlement service",
		Long: `Serve opens the configured ledger store and journal and settles
payments against them. It provides:
- the ripplecalc.v1.Settlement gRPC service
- /metrics for Prometheus
- /feed, a websocket stream of settlements (filter with ?account=)
- /settlements, the most recent journaled settlements, and
  /settlements/{id} for one of them
- /health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			log, closer, err := g.logger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := newDaemon(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.close()
			return d.run(ctx)
		},
	}
}

// daemon is the wired settlement service and its network surfaces.
type daemon struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *ledgerstore.Store
	metrics *metrics.Metrics
	feed    *feed.Hub
	svc     *settle.Service
	grpc    *rpcgrpc.Server
}

func newDaemon(ctx context.Context, cfg *config.Config, log *slog.Logger) (*daemon, error) {
	store, err := ledgerstore.Open(cfg.Store.Ledgerstore(), log.With("component", "ledgerstore"))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}
	j, err := journal.Open(ctx, cfg.Journal.Journal(), log.With("component", "journal"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	m := metrics.New()
	hub := feed.NewHub(log.With("component", "feed"))
	hub.OnClients = m.FeedClients

	opts := cfg.Engine.Options()
	opts.Logger = log.With("component", "paths")
	svc := settle.New(settle.Config{
		Ledger:  store,
		Journal: j,
		Metrics: m,
		Feed:    hub,
		Options: opts,
		Logger:  log.With("component", "settle"),
	})

	d := &daemon{cfg: cfg, log: log, store: store, metrics: m, feed: hub, svc: svc}
	if cfg.GRPC.Enabled {
		grpcCfg := rpcgrpc.DefaultServerConfig()
		grpcCfg.Address = cfg.GRPC.Address
		srv, err := rpcgrpc.NewServer(grpcCfg, svc, log.With("component", "grpc"))
		if err != nil {
			d.close()
			return nil, err
		}
		d.grpc = srv
	}
	log.Info("settlement service ready",
		"store", cfg.Store.Backend,
		"journal", cfg.Journal.Driver,
		"grpc", cfg.GRPC.Enabled,
		"http", cfg.HTTP.Enabled)
	return d, nil
}

func (d *daemon) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", d.metrics.Handler())
	r.Handle("/feed", d.feed)
	r.Get("/health", d.health)
	r.Get("/settlements", d.recentSettlements)
	r.Get("/settlements/{id}", d.getSettlement)
	return r
}

func (d *daemon) health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"service":      "ripplecalc",
		"feed_clients": d.feed.Clients(),
	})
}

func (d *daemon) recentSettlements(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := d.svc.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSONResponse(w, http.StatusOK, records)
}

func (d *daemon) getSettlement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid settlement id", http.StatusBadRequest)
		return
	}
	rec, err := d.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, journal.ErrRecordNotFound):
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, rec)
}

func writeJSONResponse(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// run serves until ctx is done or a listener fails.
func (d *daemon) run(ctx context.Context) error {
	if d.grpc == nil && !d.cfg.HTTP.Enabled {
		return errors.New("neither grpc nor http is enabled")
	}
	grp, ctx := errgroup.WithContext(ctx)

	if d.grpc != nil {
		grp.Go(d.grpc.Start)
		grp.Go(func() error {
			<-ctx.Done()
			d.grpc.Stop()
			return nil
		})
	}
	if d.cfg.HTTP.Enabled {
		srv := &http.Server{
			Addr:              d.cfg.HTTP.Address,
			Handler:           d.handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		grp.Go(func() error {
			d.log.Info("http server listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := grp.Wait()
	d.log.Info("settlement service stopping")
	return err
}

func (d *daemon) close() {
	if err := d.svc.Close(); err != nil {
		d.log.Warn("closing settlement service", "error", err)
	}
	if err := d.store.Close(); err != nil {
		d.log.Warn("closing ledger store", "error", err)
	}
}
