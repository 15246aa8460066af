package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ExperimentPath string // hcl experiment file

	LogFormat string
	LogLevel  string

	// Plan prints the assembled search space without running the search.
	Plan bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ExperimentPath == "" {
		return nil, errors.New("ExperimentPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
