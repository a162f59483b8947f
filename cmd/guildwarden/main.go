package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"guildwarden/internal/gateway"
	"guildwarden/types/config"
	"guildwarden/warden"
)

// fileConfig is the YAML shape of the config file passed via --config.
type fileConfig struct {
	Instance string `yaml:"instance"`

	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"rabbitmq"`

	RecurringNotices []struct {
		Spec    string `yaml:"spec"`
		Channel string `yaml:"channel"`
		Title   string `yaml:"title"`
		Body    string `yaml:"body"`
	} `yaml:"recurring_notices"`

	WorkerCount        int    `yaml:"worker_count"`
	HousekeepingSpec   string `yaml:"housekeeping_spec"`
	MutedRole          string `yaml:"muted_role"`
	SignupGraceSeconds int    `yaml:"signup_grace_seconds"`
	MetricsAddr        string `yaml:"metrics_addr"`
}

func loadConfig(path string) (*config.WardenConfig, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, "", fmt.Errorf("invalid config file %s: %w", path, err)
	}
	if fc.Instance == "" {
		fc.Instance = "guildwarden"
	}

	var opts []config.ContainerOption
	if fc.Postgres.URL != "" {
		opts = append(opts, config.WithPostgresConfig(config.PostgresConfig{ConnectionUrl: fc.Postgres.URL}))
	}
	if fc.Redis.Address != "" {
		opts = append(opts, config.WithRedisCache(config.RedisConfig{
			Address:  fc.Redis.Address,
			Password: fc.Redis.Password,
			DB:       fc.Redis.DB,
		}))
	}
	if fc.RabbitMQ.URL != "" {
		opts = append(opts, config.WithRabbitMQConfig(config.RabbitMQConfig{
			URL:      fc.RabbitMQ.URL,
			Exchange: fc.RabbitMQ.Exchange,
			Queue:    fc.RabbitMQ.Queue,
		}))
	}
	for _, n := range fc.RecurringNotices {
		opts = append(opts, config.WithRecurringNotice(n.Spec, n.Channel, n.Title, n.Body))
	}
	if fc.WorkerCount > 0 {
		opts = append(opts, config.WithWorkerCount(fc.WorkerCount))
	}
	if fc.HousekeepingSpec != "" {
		opts = append(opts, config.WithHousekeepingSpec(fc.HousekeepingSpec))
	}
	if fc.MutedRole != "" {
		opts = append(opts, config.WithMutedRole(fc.MutedRole))
	}
	if fc.SignupGraceSeconds > 0 {
		opts = append(opts, config.WithSignupGrace(time.Duration(fc.SignupGraceSeconds)*time.Second))
	}

	cfg, err := config.NewWardenConfig(fc.Instance, opts...)
	if err != nil {
		return nil, "", err
	}
	return cfg, fc.MetricsAddr, nil
}

func serve(configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, metricsAddr, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messenger := gateway.NewLogMessenger(logger)
	engine, deps, err := warden.New(ctx, cfg, messenger, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := deps.Collector.Register(reg); err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("metrics listening", zap.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("serving", zap.String("instance", cfg.Instance), zap.Bool("ready", engine.Ready()))
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "guildwarden",
		Short: "Timed sanction, vote and session engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "guildwarden.yaml", "Path to the YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
