package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/scott-cotton/cli"

	"minikv/internal/client"
	"minikv/internal/config"
)

type MainConfig struct {
	Main  *cli.Command
	Addr  string `cli:"name=addr desc='server address' default=127.0.0.1:6379"`
	Color bool   `cli:"name=color desc='colorize output'"`
}

type SubConfig struct {
	*MainConfig
	Cmd *cli.Command
	run func(ctx context.Context, c *client.Client, p *printer, args []string) error
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{Addr: config.DefaultAddr}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "minikv-cli").
		WithSynopsis("minikv-cli [-addr host:port] command [args]").
		WithDescription("minikv-cli sends one command to a minikv server and prints the reply.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return cliMain(cfg, cc, args)
		}).
		WithSubs(
			subCommand(cfg, "ping", "ping [message]", runPing),
			subCommand(cfg, "get", "get <key>", runGet),
			subCommand(cfg, "set", "set <key> <value> [expires-ms]", runSet),
			subCommand(cfg, "publish", "publish <channel> <message>", runPublish),
			subCommand(cfg, "subscribe", "subscribe <channel>...", runSubscribe))
}

func subCommand(mainCfg *MainConfig, name, synopsis string,
	run func(context.Context, *client.Client, *printer, []string) error) *cli.Command {
	cfg := &SubConfig{MainConfig: mainCfg, run: run}
	return cli.NewCommandAt(&cfg.Cmd, name).
		WithSynopsis(synopsis).
		WithRun(cfg.runSub)
}

func cliMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func (cfg *SubConfig) runSub(cc *cli.Context, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, cfg.Addr)
	if err != nil {
		return err
	}
	defer c.Close()

	return cfg.run(ctx, c, newPrinter(cc.Out, cfg.Color), args)
}

func runPing(ctx context.Context, c *client.Client, p *printer, args []string) error {
	var msg []byte
	switch len(args) {
	case 0:
	case 1:
		msg = []byte(args[0])
	default:
		return fmt.Errorf("%w: ping takes at most one message", cli.ErrUsage)
	}
	reply, err := c.Ping(ctx, msg)
	if err != nil {
		return p.failure(err)
	}
	p.value(reply)
	return nil
}

func runGet(ctx context.Context, c *client.Client, p *printer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get takes exactly one key", cli.ErrUsage)
	}
	val, found, err := c.Get(ctx, args[0])
	if err != nil {
		return p.failure(err)
	}
	if !found {
		p.null()
		return nil
	}
	p.value(val)
	return nil
}

func runSet(ctx context.Context, c *client.Client, p *printer, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return fmt.Errorf("%w: usage: set <key> <value> [expires-ms]", cli.ErrUsage)
	}
	var ttl time.Duration
	if len(args) == 3 {
		ms, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%w: expires must be a positive number of milliseconds, got %q", cli.ErrUsage, args[2])
		}
		ttl = time.Duration(ms) * time.Millisecond
	}
	if err := c.SetExpires(ctx, args[0], []byte(args[1]), ttl); err != nil {
		return p.failure(err)
	}
	p.ok()
	return nil
}

func runPublish(ctx context.Context, c *client.Client, p *printer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: usage: publish <channel> <message>", cli.ErrUsage)
	}
	n, err := c.Publish(ctx, args[0], []byte(args[1]))
	if err != nil {
		return p.failure(err)
	}
	p.integer(n)
	return nil
}

// runSubscribe печатает сообщения, пока не прервут или сервер не закроет соединение.
func runSubscribe(ctx context.Context, c *client.Client, p *printer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: subscribe needs at least one channel", cli.ErrUsage)
	}
	sub, err := c.Subscribe(ctx, args...)
	if err != nil {
		return p.failure(err)
	}
	p.subscribed(sub.Channels())

	for {
		msg, err := sub.NextMessage(ctx)
		switch {
		case err == nil:
			p.message(msg.Channel, msg.Content)
		case ctx.Err() != nil:
			return nil
		default:
			return p.failure(err)
		}
	}
}
