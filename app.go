package main

import (
	"context"
	"fmt"
	"os"

	"billboard-poi-scraper/config"
	"billboard-poi-scraper/events"
	"billboard-poi-scraper/scraper/browser"
	"billboard-poi-scraper/scraper/gmaps"
	"billboard-poi-scraper/services"
	"billboard-poi-scraper/storage"
	"billboard-poi-scraper/utils"
)

// app holds the wired components shared by every run mode.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	store    *storage.SQLStore
	rawCSV   *storage.CSVWriter
	events   *events.FailurePublisher
	registry *browser.Registry
	pipeline *services.Pipeline
	batch    *services.Batch
	summary  *services.SummaryService
}

func newApp(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := storage.OpenSQL(ctx, cfg.DBDriver, cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	if cfg.DBCreateTables {
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	opts := services.PipelineOptions{Headless: cfg.Headless}
	if cfg.RawCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.RawCSVPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("raw csv: %w", err)
		}
		a.rawCSV = w
		opts.RawWriter = w
		logger.Info("Raw listings are also written to %s", cfg.RawCSVPath)
	}

	failures := storage.MultiFailureRecorder{store}
	if cfg.NATSURL != "" {
		pub, err := events.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Warn("Failed rows will not be published: %v", err)
		} else {
			a.events = pub
			failures = append(failures, pub)
		}
	}

	a.registry = browser.NewRegistry(logger)
	browserOpts := browser.Options{
		ExecPath:      browser.FindChromeBinary(cfg.ChromeBin),
		Headless:      cfg.Headless,
		NoSandbox:     cfg.NoSandbox,
		DisableDevShm: cfg.DisableDevShm,
		PageTimeout:   cfg.PageTimeout,
	}
	launch := func(ctx context.Context) (services.Session, error) {
		s, err := browser.Open(ctx, browserOpts, a.registry, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	markup := gmaps.Markup{NameClass: cfg.ClassNames, ReviewClass: cfg.ClassReviews}
	scraper := gmaps.New(markup, cfg.SettleDelay, logger)

	a.pipeline = services.NewPipeline(launch, scraper, store, opts, logger)
	a.batch = services.NewBatch(store, a.pipeline, services.BatchOptions{
		ResumeAfterID: cfg.ResumeAfterID,
		RowDelay:      cfg.RowDelay,
		Failures:      failures,
		Cleanup:       a.registry.KillStray,
	}, logger)
	a.summary = services.NewSummaryService(os.Stdout, logger)

	return a, nil
}

// Close releases every resource newApp opened and kills any browser still
// tracked.
func (a *app) Close() {
	if a.registry != nil {
		if n := a.registry.KillStray(); n > 0 {
			a.logger.Warn("Killed %d browser processes on shutdown", n)
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("Closing NATS: %v", err)
		}
	}
	if a.rawCSV != nil {
		if err := a.rawCSV.Close(); err != nil {
			a.logger.Warn("Closing raw CSV: %v", err)
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
