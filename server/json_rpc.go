// Package server binds the JSON-RPC dispatcher to an HTTP endpoint and
// drives its lifecycle: listen, serve until canceled, shut the native
// chain actor down.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/internal/gateway"
	"github.com/agglayer/miden-evm-gateway/rpc"
)

// readHeaderTimeout/idleTimeout bound how long a single coordinator
// connection may sit idle; the coordinator is expected to poll
// frequently, so these are generous rather than tight.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
)

func handler(gw *gateway.Gateway, logger log.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		var rpcReq rpc.Request
		if err := json.NewDecoder(req.Body).Decode(&rpcReq); err != nil {
			logger.Error("malformed JSON-RPC request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := rpc.Dispatch(req.Context(), gw, rpcReq)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode JSON-RPC response", "error", err)
		}
	}).Methods(http.MethodPost)

	return cors.AllowAll().Handler(r)
}

// Serve binds addr, dispatches every request through rpc.Dispatch, and
// blocks until ctx is canceled. On cancellation it shuts the HTTP server
// down gracefully and stops gw's underlying native-client actor.
func Serve(ctx context.Context, addr string, gw *gateway.Gateway, logger log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler:           handler(gw, logger),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting JSON-RPC server", "address", addr)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping JSON-RPC server", "address", addr)
		if err := httpSrv.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down JSON-RPC server", "error", err)
		}
		return gw.Shutdown(context.Background())
	})

	return g.Wait()
}
