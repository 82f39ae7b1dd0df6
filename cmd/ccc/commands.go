package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/api"
	"CostOfCapital/internal/compare"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/recorder"
	"CostOfCapital/internal/report"
	"CostOfCapital/internal/report/format"
	"CostOfCapital/internal/scheduler"
)

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	adjustment := fs.String("adjustment", "", "reform adjustment: file, http(s) URL or inline JSON")
	out := fs.String("out", "output", "output directory")
	year := fs.Int("year", 0, "tax year (default from config)")
	formats := fs.String("format", "", "comma-separated output formats: csv,xlsx,json (default from config)")
	scenario := fs.String("scenario", "", "record the run under this scenario name")
	cfgPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *year != 0 {
		cfg.Run.Year = *year
	}
	if *formats != "" {
		cfg.Run.Formats = strings.Split(*formats, ",")
	}
	outFormats, err := format.Parse(strings.Join(cfg.Run.Formats, ","))
	if err != nil {
		return err
	}

	env, err := setup(cfg)
	if err != nil {
		return err
	}
	adj, err := params.ReadAdjustment(*adjustment, env.fetcher)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := compare.Reform(ctx, env.runner, env.schema, adj, cfg.Run.Year)
	if err != nil {
		return err
	}

	files, err := report.Write(*out, outFormats, report.ComparisonSheets(c))
	if err != nil {
		return err
	}
	log.Printf("[INFO] wrote %d file(s) to %s", len(files), *out)

	if *scenario != "" {
		rec := openRecorder(cfg)
		defer rec.Close()
		recordComparison(rec, *scenario, *adjustment, c)
	}

	fmt.Print(report.FormatSummary(c, cfg.Run.Variable))
	return nil
}

func recordComparison(rec recorder.Recorder, scenario, adjustment string, c *compare.Comparison) {
	runs := []*recorder.RunRecord{
		{ID: c.Baseline.RunID, Scenario: scenario, Role: recorder.RoleBaseline, Year: c.Baseline.Year},
		{ID: c.Reform.RunID, Scenario: scenario, Role: recorder.RoleReform, Year: c.Reform.Year, Adjustment: adjustment},
	}
	for _, run := range runs {
		if err := rec.RecordRun(run); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}
	}
	if err := rec.RecordAggregates(c.Reform.RunID, aggregate.ByEntity, c.Reform.Tables[aggregate.ByEntity].Rows); err != nil {
		log.Printf("[ERROR] record aggregates: %v", err)
	}
	if err := rec.RecordDiff(c.ID, scenario, c.Diffs[aggregate.ByEntity]); err != nil {
		log.Printf("[ERROR] record diff: %v", err)
	}
}

func paramsCmd(args []string) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	year := fs.Int("year", params.DefaultYear, "tax year")
	adjustment := fs.String("adjustment", "", "apply this adjustment before printing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	schema, err := params.LoadSchema()
	if err != nil {
		return err
	}
	if *year < params.StartYear || *year > params.EndYear {
		return fmt.Errorf("year %d outside %d-%d", *year, params.StartYear, params.EndYear)
	}
	if *adjustment != "" {
		adj, err := params.ReadAdjustment(*adjustment, nil)
		if err != nil {
			return err
		}
		adjusted, errs := params.ApplyAdjustment(schema, adj)
		if len(errs) > 0 {
			return errs
		}
		schema = adjusted
	}

	values := schema.Dump(*year)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := json.Marshal(values[name])
		fmt.Printf("%-36s %s\n", name, v)
	}
	return nil
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path")
	addr := fs.String("addr", "", "listen address (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	env, err := setup(cfg)
	if err != nil {
		return err
	}

	h := api.NewHandler(env.runner, env.schema, cfg.Run.Year, cfg.Run.Variable)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-sigCh:
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func scheduleCmd(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if len(cfg.Schedule.Scenarios) == 0 {
		return errors.New("no schedule.scenarios configured")
	}
	env, err := setup(cfg)
	if err != nil {
		return err
	}

	rec := openRecorder(cfg)
	defer rec.Close()
	n, tn := newNotifier(cfg)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, env.runner, env.schema, cfg.Run.Year, n, rec, cfg.Regression.Tolerance)
	sched.Fetcher = env.fetcher
	scenarios := make([]scheduler.Scenario, len(cfg.Schedule.Scenarios))
	for i, sc := range cfg.Schedule.Scenarios {
		scenarios[i] = scheduler.Scenario{Name: sc.Name, Adjustment: sc.Adjustment, Cron: sc.Cron}
	}
	if err := sched.RegisterAll(scenarios); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, evaluating every scenario now")
		go sched.RunAllNow()
	}

	log.Println("[INFO] scheduler is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	return nil
}
