// Command taskq-worker runs a database-backed task worker: it claims ready
// task rows for one backend alias and executes them until stopped, or, in
// batch mode, until the queue is drained.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrymomot/taskq"
	"github.com/dmitrymomot/taskq/config"
	"github.com/dmitrymomot/taskq/internal/demo"
	"github.com/dmitrymomot/taskq/migrations"
	"github.com/dmitrymomot/taskq/pg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskq-worker:", err)
		os.Exit(1)
	}
}

func run() error {
	var workerCfg taskq.WorkerConfig
	if err := config.Load(&workerCfg); err != nil {
		return err
	}

	queueName := flag.String("queue-name", strings.Join(workerCfg.QueueNames, ","), `comma-separated queue filter, "*" matches all queues`)
	backendName := flag.String("backend", workerCfg.BackendAlias, "backend alias to claim tasks for")
	interval := flag.Duration("interval", workerCfg.PollInterval, "sleep between empty polls, must be greater than zero")
	batch := flag.Bool("batch", workerCfg.Batch, "process all currently-ready tasks once and exit")
	verbosity := flag.Int("verbosity", 2, "log verbosity, 0 (errors only) to 3 (debug)")
	flag.Parse()

	// Configuration errors must surface before any polling begins.
	if *interval <= 0 {
		return errors.New("interval must be greater than zero")
	}

	logger := newLogger(*verbosity)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
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

	// Fail fast on an alias that is not configured instead of polling a
	// partition no backend writes to.
	if _, err := reg.Backend(*backendName); err != nil {
		return err
	}

	opts := []taskq.WorkerOption{
		taskq.WithWorkerBackend(*backendName),
		taskq.WithWorkerQueues(strings.Split(*queueName, ",")...),
		taskq.WithPollInterval(*interval),
		taskq.WithWorkerLogger(logger),
	}
	if *batch {
		opts = append(opts, taskq.WithBatchMode())
	}

	worker, err := taskq.NewWorker(store, reg, opts...)
	if err != nil {
		return err
	}
	return worker.Run(ctx)
}

func newLogger(verbosity int) *slog.Logger {
	var level slog.Level
	switch {
	case verbosity <= 0:
		level = slog.LevelError
	case verbosity == 1:
		level = slog.LevelWarn
	case verbosity == 2:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
