package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/uvpd/analysis"
	"github.com/danielhkuo/uvpd/cliparse"
	"github.com/danielhkuo/uvpd/db"
	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/handlers"
	"github.com/danielhkuo/uvpd/middleware"
	"github.com/danielhkuo/uvpd/models"
	"github.com/danielhkuo/uvpd/recorder"
	"github.com/danielhkuo/uvpd/router"
)

func main() {
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseArgs(os.Args[1:])
	if errors.Is(err, cliparse.ErrUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Command {
	case cliparse.CmdSimulate:
		err = simulate(ctx, cfg)
	case cliparse.CmdEvaluate:
		err = evaluate(cfg)
	case cliparse.CmdSummary:
		err = summary(ctx, cfg)
	case cliparse.CmdServe:
		err = serve(ctx, cfg)
	}
	if err != nil {
		slog.Error(cfg.Command+" failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// openStore connects to the database and makes sure the schema exists
func openStore(cfg cliparse.Config) (*db.Store, func(), error) {
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)
	return db.NewStore(conn, slog.Default()), func() { conn.Close() }, nil
}

func simulate(ctx context.Context, cfg cliparse.Config) error {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	batch := engine.Batch{
		ID:         cfg.BatchID,
		Seed:       cfg.Seed,
		Runs:       cfg.Runs,
		MaxVoters:  cfg.MaxVoters,
		Candidates: cfg.Candidates,
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	// A resumed batch keeps its stored dimensions, seed and creation time
	if cfg.Resume {
		existing, err := store.GetBatch(ctx, batch.ID)
		switch {
		case err == nil:
			if !cfg.SeedSet {
				batch.Seed = existing.Seed
				cfg.SeedSet = true
			}
			batch.Runs = existing.Runs
			batch.MaxVoters = existing.MaxVoters
			batch.Candidates = existing.Candidates
			batch.CreatedAt = existing.CreatedAt
			slog.Info("resuming batch", "batch", batch.ID,
				"completed", existing.CompletedRuns, "runs", existing.Runs)
		case !errors.Is(err, db.ErrBatchNotFound):
			return err
		}
	}
	if !cfg.SeedSet {
		batch.Seed = rand.Uint64()
		slog.Info("no seed given, using a random one", "seed", strconv.FormatUint(batch.Seed, 10))
	}

	warnResumeSinks(slog.Default(), cfg)
	sinks := recorder.Multi{store}
	if cfg.OutputDir != "" {
		sinks = append(sinks, recorder.NewJSONRecorder(cfg.OutputDir))
		slog.Info("writing run files", "dir", cfg.OutputDir)
	}
	if cfg.AMQPURL != "" {
		pub, err := recorder.Dial(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		slog.Info("publishing step records", "exchange", cfg.Exchange)
	}

	sim, err := engine.NewSimulator(engine.Config{
		Batch:   batch,
		Workers: cfg.Workers,
		Resume:  cfg.Resume,
	}, sinks, nil, slog.Default())
	if err != nil {
		return err
	}

	stats, err := sim.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("simulation interrupted, rerun with -resume to finish",
				"batch", batch.ID, "completed", stats.Completed)
		}
		return err
	}

	fmt.Printf("batch %s: %s runs completed, %s skipped, %s steps\n",
		batch.ID, humanize.Comma(int64(stats.Completed)), humanize.Comma(int64(stats.Skipped)),
		humanize.Comma(int64(stats.Steps)))
	return nil
}

// warnResumeSinks flags that resume only consults the database, so runs it
// already holds are not written to the other sinks
func warnResumeSinks(logger *slog.Logger, cfg cliparse.Config) {
	if !cfg.Resume || (cfg.OutputDir == "" && cfg.AMQPURL == "") {
		return
	}
	logger.Warn("resume skips runs already in the database; they are not written to run files or published",
		"batch", cfg.BatchID, "out", cfg.OutputDir, "amqp", cfg.AMQPURL != "")
}

func evaluate(cfg cliparse.Config) error {
	resp, err := handlers.EvaluateRankings(cfg.Candidates, cfg.Rankings)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func summary(ctx context.Context, cfg cliparse.Config) error {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	batch, err := store.GetBatch(ctx, cfg.BatchID)
	if err != nil {
		return err
	}
	records, err := store.BatchRecords(ctx, cfg.BatchID)
	if err != nil {
		return err
	}
	s := analysis.Summarize(records)

	if cfg.Format == "text" {
		fmt.Printf("batch %s (seed %d, %d candidates, created %s)\n",
			batch.ID, batch.Seed, batch.Candidates, humanize.Time(batch.CreatedAt))
		return s.Report(os.Stdout)
	}
	return printJSON(models.SummaryResponse{Batch: models.NewBatch(batch), Summary: s})
}

func serve(ctx context.Context, cfg cliparse.Config) error {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// Create router
	mux := router.NewRouter(store, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
