// Command taskq-server exposes the task queue over HTTP: result lookup and
// task enqueueing for the registered demo tasks, plus a readiness probe.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/taskq"
	"github.com/dmitrymomot/taskq/config"
	"github.com/dmitrymomot/taskq/httpapi"
	"github.com/dmitrymomot/taskq/httpserver"
	"github.com/dmitrymomot/taskq/internal/demo"
	"github.com/dmitrymomot/taskq/migrations"
	"github.com/dmitrymomot/taskq/pg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskq-server:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, logger); err != nil {
		return err
	}

	store, err := taskq.NewPostgresStore(pool)
	if err != nil {
		return err
	}

	reg := taskq.NewRegistry()
	backend, err := taskq.NewDatabaseBackend(store, taskq.DefaultBackendAlias)
	if err != nil {
		return err
	}
	if err := reg.AddBackend(taskq.DefaultBackendAlias, backend); err != nil {
		return err
	}
	if err := demo.Register(reg); err != nil {
		return err
	}

	api, err := httpapi.NewHandler(reg, taskq.DefaultBackendAlias)
	if err != nil {
		return err
	}

	healthy := pg.Healthcheck(pool)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := healthy(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/", api.Router())

	return httpserver.Run(ctx, httpCfg, r, logger)
}
