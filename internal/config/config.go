package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/report/format"
)

// Scenario is a reform evaluated on a schedule.
type Scenario struct {
	Name       string `yaml:"name"`
	Adjustment string `yaml:"adjustment"`
	Cron       string `yaml:"cron"`
}

// Config holds all application configuration.
type Config struct {
	Data struct {
		Assets  string `yaml:"assets"`
		Weights string `yaml:"weights"`
	} `yaml:"data"`
	Run struct {
		Year     int      `yaml:"year"`
		Formats  []string `yaml:"formats"`
		Variable string   `yaml:"variable"`
	} `yaml:"run"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		Scenarios  []Scenario `yaml:"scenarios"`
		RunOnStart bool       `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Regression struct {
		Tolerance float64 `yaml:"tolerance"` // percentage points
	} `yaml:"regression"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CCC_ASSETS"); v != "" {
		cfg.Data.Assets = v
	}
	if v := os.Getenv("CCC_WEIGHTS"); v != "" {
		cfg.Data.Weights = v
	}
	if v := os.Getenv("CCC_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CCC_YEAR: %w", err)
		}
		cfg.Run.Year = year
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CCC_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Run.Year == 0 {
		cfg.Run.Year = params.DefaultYear
	}
	if len(cfg.Run.Formats) == 0 {
		cfg.Run.Formats = []string{format.CSV}
	}
	if cfg.Run.Variable == "" {
		cfg.Run.Variable = "mettr"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ccc.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Regression.Tolerance == 0 {
		cfg.Regression.Tolerance = 0.01
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Run.Year < params.StartYear || c.Run.Year > params.EndYear {
		return fmt.Errorf("run.year must be in [%d, %d], got %d", params.StartYear, params.EndYear, c.Run.Year)
	}
	for _, f := range c.Run.Formats {
		if _, err := format.Parse(f); err != nil {
			return fmt.Errorf("run.formats: %w", err)
		}
	}
	if !slices.Contains(model.Variables, c.Run.Variable) {
		return fmt.Errorf("run.variable %q is not an output variable", c.Run.Variable)
	}
	if c.Regression.Tolerance < 0 {
		return fmt.Errorf("regression.tolerance must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	seen := make(map[string]bool)
	for i, sc := range c.Schedule.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("schedule.scenarios[%d].name is required", i)
		}
		if sc.Cron == "" {
			return fmt.Errorf("schedule.scenarios[%d].cron is required", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("schedule.scenarios: duplicate name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}
