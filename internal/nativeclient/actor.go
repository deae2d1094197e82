package nativeclient

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/internal/metrics"
)

// syncInterval is how often the actor polls the native chain for state
// changes between explicit requests.
const syncInterval = 5 * time.Second

// connRetryInterval is how long the actor waits before retrying a failed
// sync round when the failure looks like connectivity loss rather than a
// protocol error.
const connRetryInterval = 5 * time.Second

type actorRequest struct {
	fn    func(context.Context, Client) (any, error)
	reply chan actorResponse
}

type actorResponse struct {
	result any
	err    error
}

// Actor owns a Client on a single dedicated goroutine. The client is not
// safe for concurrent use, so every operation funnels through With,
// which serializes access over a bounded channel.
type Actor struct {
	client    Client
	listeners []Listener
	logger    log.Logger

	requests chan actorRequest
	done     chan struct{}
	wg       sync.WaitGroup
}

// New dials the native chain client per cfg, performs an initial
// SyncState with retry, and starts the actor's main loop on a new
// goroutine.
func New(ctx context.Context, cfg ClientConfig, listeners []Listener, logger log.Logger) (*Actor, error) {
	client, err := NewGRPCClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newActor(ctx, client, listeners, logger)
}

// newActor starts the main loop over an already-constructed client. It
// is split out from New so tests can drive the actor against a fake
// Client without dialing a node.
func newActor(ctx context.Context, client Client, listeners []Listener, logger log.Logger) (*Actor, error) {
	a := &Actor{
		client:    client,
		listeners: listeners,
		logger:    logger,
		requests:  make(chan actorRequest, 1),
		done:      make(chan struct{}),
	}

	if err := a.initialSync(ctx); err != nil {
		client.Close()
		return nil, err
	}

	a.wg.Add(1)
	go a.run(ctx)
	return a, nil
}

func (a *Actor) initialSync(ctx context.Context) error {
	for {
		summary, err := a.client.SyncState(ctx)
		if err == nil {
			a.notify(summary)
			return nil
		}
		a.logger.Warn("initial sync failed, retrying", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connRetryInterval):
		}
	}
}

func (a *Actor) notify(summary SyncSummary) {
	for _, l := range a.listeners {
		l.OnSync(summary)
	}
}

func (a *Actor) run(ctx context.Context) {
	defer a.wg.Done()
	defer a.client.Close()

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case req := <-a.requests:
			metrics.ActorRequests.Inc(1)
			result, err := req.fn(ctx, a.client)
			trySend(req.reply, actorResponse{result: result, err: err})
		case <-ticker.C:
			summary, err := a.client.SyncState(ctx)
			if isConnErr(err) {
				a.logger.Warn("sync: node unreachable, retrying", "error", err)
				continue
			}
			if err != nil {
				a.logger.Error("sync: fatal", "error", err)
				return
			}
			metrics.SyncRounds.Inc(1)
			a.notify(summary)
		}
	}
}

// trySend delivers resp without blocking if the caller of With has
// already abandoned the reply channel (e.g. its context was canceled
// while the request was in flight).
func trySend(reply chan actorResponse, resp actorResponse) {
	select {
	case reply <- resp:
	default:
	}
}

// isConnErr reports whether err looks like a transient connectivity
// failure (the node is unreachable or a call timed out) rather than a
// fatal client error. gRPC status codes survive error wrapping, so this
// still classifies correctly underneath the pkg/errors wraps
// NewGRPCClient applies.
func isConnErr(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// With is the only way external code touches the native chain client.
// fn runs on the actor goroutine; With blocks until it completes or ctx
// is canceled.
func (a *Actor) With(ctx context.Context, fn func(context.Context, Client) (any, error)) (any, error) {
	reply := make(chan actorResponse, 1)
	req := actorRequest{fn: fn, reply: reply}

	select {
	case <-a.done:
		return nil, ErrActorShutdown
	default:
	}

	select {
	case a.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.done:
		return nil, ErrActorShutdown
	}

	select {
	case resp := <-reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.done:
		return nil, ErrActorShutdown
	}
}

// Keystore returns the shared keystore handle, safe for concurrent use
// without going through With.
func (a *Actor) Keystore() Keystore {
	return a.client.Keystore()
}

// Shutdown signals the actor goroutine to stop and waits for it to exit.
func (a *Actor) Shutdown(ctx context.Context) error {
	close(a.done)
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
