package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config holds the harness's own knobs: the admin HTTP surface address,
// the log level, the fixed worker-pool size, and the default condition
// awaiter poll interval. It carries none of the target service's own
// credentials or base URL — those come from the out-of-scope
// service-descriptor registry (spec.md §1).
//
// AwaiterPollMS and DefaultWorkers are parsed and validated but not read
// by anything else: awaiters poll at awaiter.DefaultPollInterval, and a
// flow's worker count comes from StartParams.Workers or
// controller.DefaultWorkersPerFlow.
type Config struct {
	Address         string `env:"RUN_ADDRESS"`
	LogLevel        string `env:"LOG_LEVEL"`
	WorkerPoolSize  int    `env:"WORKER_POOL_SIZE"`
	AwaiterPollMS   int    `env:"AWAITER_POLL_MS"`
	DefaultWorkers  int    `env:"DEFAULT_WORKERS_PER_FLOW"`
}

func NewConfig() (*Config, error) {
	var cfg Config

	flag.StringVar(&cfg.Address, "a", "localhost:8090", "admin server address")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")
	flag.IntVar(&cfg.WorkerPoolSize, "w", 16, "fixed worker pool size")
	flag.IntVar(&cfg.AwaiterPollMS, "p", 100, "condition awaiter poll interval, ms")
	flag.IntVar(&cfg.DefaultWorkers, "n", 100, "default workers per testing flow")
	flag.Parse()

	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if cfg.Address == "" {
		return nil, errors.New("admin address is required")
	}
	_, port, err := net.SplitHostPort(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("bad format, use host:port: %w", err)
	}
	if _, err := strconv.ParseUint(port, 10, 32); err != nil {
		return nil, fmt.Errorf("port required only digest: %w", err)
	}
	if cfg.WorkerPoolSize <= 0 {
		return nil, errors.New("worker pool size must be positive")
	}
	if cfg.AwaiterPollMS <= 0 {
		return nil, errors.New("awaiter poll interval must be positive")
	}
	if cfg.DefaultWorkers <= 0 {
		return nil, errors.New("default workers per flow must be positive")
	}
	return &cfg, nil
}
