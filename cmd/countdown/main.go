package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"countdown/internal/app"
	"countdown/internal/config"
	"countdown/internal/countdown"
	"countdown/internal/message"
)

var version = "dev"

var (
	configFlag = cli.StringFlag{
		Name:   "config, c",
		Usage:  "optional config file (.json, .yaml, .yml)",
		EnvVar: "COUNTDOWN_CONFIG",
	}
	atFlag = cli.StringFlag{
		Name:  "at",
		Usage: "RFC3339 instant to render instead of now",
	}
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := cli.NewApp()
	a.Name = "countdown"
	a.HelpName = "countdown"
	a.Usage = "posts a New Year 2027 countdown to a Slack webhook every hour"
	a.UsageText = "countdown [--config FILE] [command]"
	a.Version = version
	a.Writer = stdout
	a.ErrWriter = stderr
	a.Flags = []cli.Flag{configFlag}
	a.Action = func(c *cli.Context) error { return runService(ctx, c) }
	a.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "start the countdown (default)",
			Action: func(c *cli.Context) error { return runService(ctx, c) },
		},
		{
			Name:   "preview",
			Usage:  "print the message a tick would send, as JSON",
			Flags:  []cli.Flag{atFlag},
			Action: preview,
		},
	}

	if err := a.Run(args); err != nil {
		fmt.Fprintln(stderr, "fatal:", err)
		return 1
	}
	return 0
}

func runService(ctx context.Context, c *cli.Context) error {
	url, err := config.WebhookURL()
	if err != nil {
		return err
	}
	svc, err := app.New(app.Options{
		ConfigPath: c.GlobalString("config"),
		WebhookURL: url,
	})
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}

func preview(c *cli.Context) error {
	now := time.Now()
	if raw := strings.TrimSpace(c.String("at")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		now = t
	}
	return writePreview(c.App.Writer, now)
}

func writePreview(w io.Writer, now time.Time) error {
	p := message.Format(countdown.Compute(now, countdown.Target))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(p)
}
