package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"

	"minikv/internal/config"
	"minikv/internal/server"
	"minikv/internal/storage"
)

type ServeConfig struct {
	Serve      *cli.Command
	ConfigFile string `cli:"name=config desc='configuration file (yaml)'"`
	Addr       string `cli:"name=addr desc='TCP listen address (default 127.0.0.1:6379)'"`
	MaxConns   int    `cli:"name=max-conns desc='maximum number of concurrent connections (default 250)'"`
	LogLevel   string `cli:"name=log-level desc='log level: debug, info, warn, error (default info)'"`
	Gops       bool   `cli:"name=gops desc='start the gops diagnostics agent'"`
}

func ServeCommand() *cli.Command {
	return newServeConfig().command()
}

// Умолчания живут в полях, а не в тегах default=: опция с default
// получает Value ещё до разбора, и optSet перестал бы отличать
// явно заданный флаг.
func newServeConfig() *ServeConfig {
	return &ServeConfig{
		Addr:     config.DefaultAddr,
		MaxConns: server.DefaultMaxConnections,
		LogLevel: "info",
	}
}

func (cfg *ServeConfig) command() *cli.Command {
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Serve, "minikv-server").
		WithSynopsis("minikv-server [-config file] [-addr host:port] [-max-conns n] [-log-level lvl] [-gops]").
		WithDescription("minikv-server runs an in-memory key-value server speaking RESP over TCP.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}

	conf, err := cfg.resolve(cfg.flagSet)
	if err != nil {
		return err
	}
	level, _ := conf.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Warn("gops agent failed", "error", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.New(conf.StoreOptions(logger))
	defer store.Close()

	srv := server.New(conf.Addr, store, conf.ServerOptions(logger)...)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// resolve собирает итоговую конфигурацию: умолчания, затем файл,
// затем явно заданные флаги.
func (cfg *ServeConfig) resolve(set func(name string) bool) (config.Config, error) {
	conf := config.Default()
	if cfg.ConfigFile != "" {
		var err error
		conf, err = config.Load(cfg.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
	}

	if set("addr") {
		conf.Addr = cfg.Addr
	}
	if set("max-conns") {
		conf.MaxConnections = cfg.MaxConns
	}
	if set("log-level") {
		conf.LogLevel = cfg.LogLevel
	}

	if err := conf.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return conf, nil
}

func (cfg *ServeConfig) flagSet(name string) bool {
	return optSet(cfg.Serve, name)
}

// optSet сообщает, задан ли флаг в командной строке.
func optSet(cmd *cli.Command, name string) bool {
	for _, opt := range cmd.Opts {
		if opt.Name == name {
			return opt.Value != nil
		}
	}
	return false
}
