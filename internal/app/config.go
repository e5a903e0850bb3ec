package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TemplatePath string // file or directory of .md templates
	OutPath      string
	ConfigPath   string // hcl file or directory

	LogFormat string
	LogLevel  string

	Workers    int
	Sequential bool
	Timeout    time.Duration

	PrintPlan    bool
	PrintProfile bool
	HTML         bool

	ServePort      int
	PromptURL      string
	NonInteractive bool

	// Explicit names the flags the user set. They win over the config file.
	Explicit map[string]bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.TemplatePath == "" && cfg.ServePort <= 0 {
		return nil, errors.New("TemplatePath is a required configuration field unless a serve port is set")
	}
	if cfg.Explicit == nil {
		cfg.Explicit = make(map[string]bool)
	}
	return &cfg, nil
}
