package main

import (
	"context"
	"fmt"
	"os"

	"ec-console/actions"
	"ec-console/config"
	"ec-console/form"
	"ec-console/ledger"
	"ec-console/rpc"
	"ec-console/views/actors"
	"ec-console/views/cluster"
	"ec-console/views/table"
	"ec-console/views/transfers"
	"ec-console/views/wallet"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// snapshotCommand prints the node state once without starting the console.
func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Print wallet, actors, cluster and transfers of the active node",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long",
				Value: rpc.DefaultTimeout,
			},
		},
		Action: snapshot,
	}
}

func snapshot(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var seed ledger.ID
	if s := cmd.String("seed"); s != "" {
		if seed, err = ledger.ParseID(s); err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "snapshot",
	})
	endpoint, _ := cfg.Active()
	client := rpc.New(rpc.Options{
		URL:        endpoint.URL,
		ModulePath: cfg.ModulePath,
		Password:   cfg.Password,
		Timeout:    cfg.Timeout(),
		Logger:     logger,
	})
	logger.Info("fetching", "node", endpoint.Name, "url", endpoint.URL)

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	b := actions.New(form.NewValidator(), false)
	walletView := wallet.New(b, wallet.Handlers{})
	actorsView := actors.New(b, client, actors.Handlers{})
	clusterView := cluster.New(b, client, cluster.Handlers{})
	transfersView := transfers.New(b, client, transfers.Handlers{})

	var walletTable, actorsTable, clusterTable, transfersTable table.Table
	var entries []ledger.WalletEntry
	var heads []ledger.ID
	var confidences ledger.Confidences

	g, ctx := errgroup.WithContext(ctx)
	if seed != "" {
		g.Go(func() error {
			var err error
			entries, err = client.GetBalances(ctx, seed)
			walletTable = walletView.Render(entries)
			return err
		})
	}
	g.Go(func() error {
		records, err := client.GetActors(ctx)
		actorsTable = actorsView.Render(records)
		return err
	})
	g.Go(func() error {
		records, err := client.GetCluster(ctx)
		clusterTable = clusterView.Render(records)
		return err
	})
	g.Go(func() error {
		records, err := client.GetTransfers(ctx)
		transfersTable = transfersView.Render(records)
		if err != nil || len(records) == 0 {
			return err
		}
		heads = make([]ledger.ID, len(records))
		for i, r := range records {
			heads[i] = r.BundleHead
		}
		confidences, err = client.GetClusterConfidences(ctx, heads)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	none := table.Selection{Row: -1}
	if seed != "" {
		fmt.Printf("Wallet (total %s)\n%s\n\n", wallet.Total(entries), table.Draw(walletTable, none, 0))
	}
	fmt.Printf("Actors\n%s\n\n", table.Draw(actorsTable, none, 0))
	fmt.Printf("Cluster\n%s\n\n", table.Draw(clusterTable, none, 0))
	fmt.Printf("Transfers\n%s\n", table.Draw(transfersTable, none, 0))
	for _, h := range heads {
		fmt.Printf("%s  %.0f%%\n", h, 100*confidences[h])
	}
	return nil
}
