package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ec-console/config"
	"ec-console/ledger"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// -------------------- MAIN --------------------

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var seed ledger.ID
	if s := cmd.String("seed"); s != "" {
		if seed, err = ledger.ParseID(s); err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	}

	m := newModel(cfg, configPath, seed)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		// A signal cancels ctx; that is a normal exit.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "ec-console",
		Usage:  "Operator console for an economic clustering node",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "~/.ec-console.json",
				Value:       config.DefaultPath(),
				Sources:     cli.EnvVars("EC_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "seed",
				Usage:   "Wallet seed for this session; never written to disk",
				Sources: cli.EnvVars("EC_SEED"),
			},
		},
		Commands: []*cli.Command{
			snapshotCommand(),
			devnodeCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Error("application error", "err", err)
		stop()
		os.Exit(1)
	}
}
