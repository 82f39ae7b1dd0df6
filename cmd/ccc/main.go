package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"CostOfCapital/internal/config"
	"CostOfCapital/internal/loader"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/notifier"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/pipeline"
	"CostOfCapital/internal/recorder"
)

// Exit codes.
const (
	exitOK         = 0
	exitInternal   = 1
	exitValidation = 2
)

const usage = `usage: ccc <command> [flags]

commands:
  run       compare a reform against the baseline and write result tables
  params    print the effective baseline parameters for a year
  serve     serve the HTTP API
  schedule  run configured reform scenarios on cron schedules
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitInternal)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCmd(args)
	case "params":
		err = paramsCmd(args)
	case "serve":
		err = serveCmd(args)
	case "schedule":
		err = scheduleCmd(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(exitInternal)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			log.Printf("[ERROR] %v", e)
		}
		return exitValidation
	}
	log.Printf("[ERROR] %v", err)
	return exitInternal
}

// configPath resolves the config file from the flag, CCC_CONFIG_PATH or the
// default location.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CCC_CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(configPath(path))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// environment is everything a command needs to evaluate scenarios.
type environment struct {
	cfg     *config.Config
	schema  *params.Schema
	runner  *pipeline.Runner
	fetcher *loader.HTTPFetcher
}

func setup(cfg *config.Config) (*environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	schema, err := params.LoadSchema()
	if err != nil {
		return nil, err
	}
	fetcher := loader.NewHTTPFetcher(cfg.Proxy)
	ds, err := loader.NewLoader(fetcher).Load(cfg.Data.Assets, cfg.Data.Weights)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, schema: schema, runner: pipeline.NewRunner(ds), fetcher: fetcher}, nil
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.Printf("[WARN] create database dir, using noop recorder: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newNotifier(cfg *config.Config) (notifier.Notifier, *notifier.TelegramNotifier) {
	if cfg.Telegram.BotToken == "" {
		log.Println("[INFO] no telegram bot token, notifications go to the log")
		return notifier.NewLogNotifier(), nil
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	return tn, tn
}
