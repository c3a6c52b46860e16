package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"billboard-poi-scraper/config"
	"billboard-poi-scraper/metrics"
	"billboard-poi-scraper/models"
	"billboard-poi-scraper/utils"
	"billboard-poi-scraper/workflows"
)

func main() {
	mode := flag.String("mode", "batch", "batch | single | schedule | worker | submit")
	lat := flag.Float64("lat", 0, "billboard latitude (single mode)")
	long := flag.Float64("long", 0, "billboard longitude (single mode)")
	id := flag.Int64("id", 0, "billboard id (single mode)")
	conf := flag.String("conf", "", "trigger file with lat, long and billboard_id (single mode)")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	logger.Info("=== Billboard POI scraper starting (mode: %s) ===", *mode)
	logger.Info("Config: db=%s | headless=%v | settle=%v | resume after id %d",
		cfg.DBDriver, cfg.Headless, cfg.SettleDelay, cfg.ResumeAfterID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *mode == "submit" {
		if err := submit(ctx, cfg, logger); err != nil {
			logger.Error("Submit failed: %v", err)
			os.Exit(1)
		}
		return
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed: %v", err)
		logger.Error("Make sure the database is running: docker compose up -d")
		os.Exit(1)
	}
	defer a.Close()

	switch *mode {
	case "batch":
		err = runBatch(ctx, a)
	case "single":
		trigger := models.Trigger{Latitude: *lat, Longitude: *long, BillboardID: *id}
		if *conf != "" {
			trigger, err = config.LoadTrigger(*conf)
			if err != nil {
				break
			}
		}
		err = runSingle(ctx, a, trigger)
	case "schedule":
		err = runSchedule(ctx, a)
	case "worker":
		err = runWorker(a)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	if err != nil {
		logger.Error("%v", err)
		a.Close()
		os.Exit(1)
	}
}

// runBatch processes the whole billboards table, retrying the full batch per
// the configured schedule policy.
func runBatch(ctx context.Context, a *app) error {
	retry := utils.RetryConfig{
		MaxAttempts: a.cfg.Schedule.Attempts,
		BaseDelay:   a.cfg.Schedule.RetryDelay,
		Fixed:       true,
		Logger:      a.logger,
	}

	var report *models.BatchReport
	err := retry.DoContext(ctx, "billboard batch", func(ctx context.Context) error {
		r, err := a.batch.RunAll(ctx)
		if r != nil {
			report = r
		}
		return err
	})
	if report != nil {
		a.summary.PrintBatch(report)
	}
	if perr := metrics.Push(a.cfg.PushgatewayURL, "poi_scraper"); perr != nil {
		a.logger.Warn("Pushing metrics failed: %v", perr)
	}
	return err
}

func runSingle(ctx context.Context, a *app, t models.Trigger) error {
	if t.BillboardID == 0 {
		return fmt.Errorf("single mode needs -id or -conf")
	}
	coord := models.Coordinate{Latitude: t.Latitude, Longitude: t.Longitude}
	records, err := a.pipeline.Run(ctx, coord, t.BillboardID)
	if err != nil {
		return err
	}
	a.summary.Print(a.summary.Generate(t.BillboardID, records))
	return nil
}

// runSchedule runs a batch on every tick of SCHEDULE_CRON until interrupted.
// A tick that fires while a batch is still running is skipped.
func runSchedule(ctx context.Context, a *app) error {
	if a.cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule mode needs SCHEDULE_CRON")
	}

	log := a.logger.With("schedule")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(a.cfg.Schedule.Cron, func() {
		if err := runBatch(ctx, a); err != nil {
			log.Error("Batch failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid SCHEDULE_CRON %q: %w", a.cfg.Schedule.Cron, err)
	}

	serveMetrics(ctx, a)
	c.Start()
	log.Info("Started (%s)", a.cfg.Schedule.Cron)

	<-ctx.Done()
	log.Info("Stopping, waiting for a running batch to finish")
	<-c.Stop().Done()
	return nil
}

// runWorker serves the scrape workflows on the Temporal task queue.
func runWorker(a *app) error {
	c, err := client.Dial(client.Options{HostPort: a.cfg.TemporalHostPort})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveMetrics(ctx, a)

	w := worker.New(c, a.cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ScrapeAllWorkflow)
	w.RegisterWorkflow(workflows.ScrapeBillboardWorkflow)
	w.RegisterActivity(&workflows.Activities{Batch: a.batch, Pipeline: a.pipeline})

	a.logger.Info("Temporal worker started on queue %s", a.cfg.TemporalTaskQueue)
	return w.Run(worker.InterruptCh())
}

// submit starts one ScrapeAllWorkflow run with the configured retry policy.
func submit(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	input := workflows.BatchInput{Policy: workflows.Policy{
		Attempts:   cfg.Schedule.Attempts,
		RetryDelay: cfg.Schedule.RetryDelay,
	}}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "poi-batch-" + uuid.NewString(),
		TaskQueue: cfg.TemporalTaskQueue,
	}, workflows.ScrapeAllWorkflow, input)
	if err != nil {
		return err
	}
	logger.Info("Started workflow %s (run %s)", run.GetID(), run.GetRunID())
	return nil
}

func serveMetrics(ctx context.Context, a *app) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.MetricsAddr); err != nil {
			a.logger.Error("Metrics server: %v", err)
		}
	}()
	a.logger.Info("Serving metrics on %s/metrics", a.cfg.MetricsAddr)
}
