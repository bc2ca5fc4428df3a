package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"ec-console/nodetest"
	"ec-console/rpc"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// devnodeCommand serves the in-memory node so the console can be tried
// without a real one.
func devnodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "devnode",
		Usage: "Serve an in-memory node for trying the console",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "localhost:2187",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Module path the node answers for",
				Value: rpc.DefaultModulePath,
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Password requests must carry",
				Value:   rpc.DefaultPassword,
				Sources: cli.EnvVars("EC_PASSWORD"),
			},
		},
		Action: devnode,
	}
}

func devnode(ctx context.Context, cmd *cli.Command) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "devnode",
	})

	node := nodetest.New(cmd.String("path"), cmd.String("password"))
	srv := &http.Server{
		Handler:           node.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", cmd.String("addr"))
	if err != nil {
		return fmt.Errorf("devnode: %w", err)
	}
	logger.Info("listening", "url", "http://"+ln.Addr().String()+nodetest.Route)
	return serveNode(ctx, srv, ln, logger)
}

// serveNode serves on ln until ctx is cancelled, then shuts srv down.
func serveNode(ctx context.Context, srv *http.Server, ln net.Listener, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("devnode: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
