package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"ptrack/pkg/config"
	"ptrack/pkg/covalent"
	"ptrack/pkg/explorer"
	"ptrack/pkg/logging"
	"ptrack/pkg/metrics"
)

type appMode int

const (
	appTUI appMode = iota
	appServer
	appOneShot
)

// app holds the components shared by every command.
type app struct {
	path     string
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	explorer *explorer.Explorer
}

func loadConfig() (string, *config.Config, error) {
	path, err := config.GetConfigPath(cfgFile)
	if err != nil {
		return "", nil, fmt.Errorf("error determining config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return path, nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return path, cfg, nil
}

func newApp(mode appMode) (*app, error) {
	path, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration in %s: %v", path, errs)
	}

	level, file := cfg.Logging.Level, cfg.Logging.File
	switch mode {
	case appTUI:
		if file == "" {
			file = config.DefaultLogPath()
		}
	case appOneShot:
		if !verbose {
			level = "warn"
		}
	}
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(level, file)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := covalent.NewClient(cfg.ClientOptions(), logger)
	e := explorer.New(client, cfg.ExplorerOptions(), logger, m)

	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.String("network", string(cfg.Network())),
		zap.String("mode", string(cfg.Mode())),
		zap.Bool("api_key_present", cfg.APIKey != ""))

	return &app{
		path:     path,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		explorer: e,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
