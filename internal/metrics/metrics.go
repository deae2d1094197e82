// Package metrics exposes the gateway's go-ethereum-style metrics
// registry over a Prometheus endpoint, reusing geth's own collectors
// (the counters below are registered against gethmetrics.DefaultRegistry
// here and incremented by the actor and gateway packages) rather than
// standing up a second metrics library.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	gethprom "github.com/ethereum/go-ethereum/metrics/prometheus"

	"cosmossdk.io/log"
)

var (
	// ActorRequests counts closures dispatched through the native-client
	// actor's With call.
	ActorRequests = gethmetrics.NewRegisteredCounter("gateway/actor/requests", gethmetrics.DefaultRegistry)
	// SyncRounds counts completed native-chain sync rounds.
	SyncRounds = gethmetrics.NewRegisteredCounter("gateway/actor/sync_rounds", gethmetrics.DefaultRegistry)
	// ClaimsSubmitted counts claimAsset transactions accepted for submission.
	ClaimsSubmitted = gethmetrics.NewRegisteredCounter("gateway/txns/claims_submitted", gethmetrics.DefaultRegistry)
	// GERInsertions counts insertGlobalExitRoot transactions recorded.
	GERInsertions = gethmetrics.NewRegisteredCounter("gateway/txns/ger_insertions", gethmetrics.DefaultRegistry)
)

// Serve binds addr and exposes DefaultRegistry for scraping until ctx
// is canceled, then drains in-flight scrapes before returning.
func Serve(ctx context.Context, logger log.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", gethprom.Handler(gethmetrics.DefaultRegistry))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting metrics server", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("stopping metrics server", "address", addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
			return err
		}
		return nil

	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start metrics server", "error", err)
			return err
		}
		return nil
	}
}
