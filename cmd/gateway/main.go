// Command gateway runs the Miden-to-Ethereum-JSON-RPC protocol-adaptation
// gateway: it bootstraps or loads the well-known bridge accounts, starts
// the native chain client's sync actor, and serves the fixed JSON-RPC
// method table a cross-chain bridging coordinator expects.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/config"
	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
	"github.com/agglayer/miden-evm-gateway/internal/blocknum"
	"github.com/agglayer/miden-evm-gateway/internal/bootstrap"
	"github.com/agglayer/miden-evm-gateway/internal/ger"
	"github.com/agglayer/miden-evm-gateway/internal/gateway"
	"github.com/agglayer/miden-evm-gateway/internal/logging"
	"github.com/agglayer/miden-evm-gateway/internal/metrics"
	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
	"github.com/agglayer/miden-evm-gateway/internal/txnmanager"
	"github.com/agglayer/miden-evm-gateway/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the Miden bridge gateway's Ethereum-compatible JSON-RPC front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), config.Load(v))
		},
	}
	if err := config.BindFlags(cmd, v); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	blocks := blocknum.New()
	gerSlot := ger.NewSlot()
	txns := txnmanager.New(logger)

	actor, err := nativeclient.New(ctx, nativeclient.ClientConfig{
		NodeAddr: cfg.MidenNode,
		StoreDir: cfg.MidenStoreDir,
		ChainID:  cfg.ChainID,
	}, []nativeclient.Listener{blocks, txns}, logger)
	if err != nil {
		return fmt.Errorf("gateway: start native client: %w", err)
	}

	if cfg.Init {
		path, err := bootstrap.Run(ctx, actor, cfg.MidenStoreDir)
		if err != nil {
			_ = actor.Shutdown(ctx)
			return fmt.Errorf("gateway: bootstrap: %w", err)
		}
		logger.Info("bootstrapped bridge accounts", "path", path)
		return actor.Shutdown(ctx)
	}

	exists, err := accountscfg.Exists(cfg.MidenStoreDir)
	if err != nil {
		return fmt.Errorf("gateway: check accounts config: %w", err)
	}
	if !exists {
		return fmt.Errorf("gateway: no bridge accounts config found under %s; run with --init first", cfg.MidenStoreDir)
	}
	accounts, err := accountscfg.Load(cfg.MidenStoreDir)
	if err != nil {
		return fmt.Errorf("gateway: load accounts config: %w", err)
	}

	gw := gateway.New(actor, txns, blocks, gerSlot, accounts, cfg.ChainID, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, cfg.ListenAddr(), gw, logger)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, logger, cfg.MetricsAddr)
		})
	}

	return g.Wait()
}
