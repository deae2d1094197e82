package nativeclient

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"
)

type fakeKeystore struct{}

func (fakeKeystore) AddFalcon512Key(context.Context, AccountID) error { return nil }

type fakeClient struct {
	closed  bool
	synced  int
	submits int
}

func (f *fakeClient) CreateAccount(context.Context, CreateAccountRequest) (AccountID, error) {
	return AccountID{0x01}, nil
}

func (f *fakeClient) SubmitTransaction(context.Context, AccountID, TransactionRequest) (TransactionID, error) {
	f.submits++
	return "txn-1", nil
}

func (f *fakeClient) SyncState(context.Context) (SyncSummary, error) {
	f.synced++
	return SyncSummary{BlockNum: uint64(f.synced)}, nil
}

func (f *fakeClient) Keystore() Keystore { return fakeKeystore{} }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

type countingListener struct {
	calls int
}

func (c *countingListener) OnSync(SyncSummary) {
	c.calls++
}

func TestActorWithRunsOnActorGoroutine(t *testing.T) {
	client := &fakeClient{}
	listener := &countingListener{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newActor(ctx, client, []Listener{listener}, log.NewNopLogger())
	require.NoError(t, err)

	result, err := a.With(context.Background(), func(_ context.Context, c Client) (any, error) {
		return c.SubmitTransaction(context.Background(), AccountID{}, TransactionRequest{})
	})
	require.NoError(t, err)
	require.Equal(t, TransactionID("txn-1"), result)
	require.Equal(t, 1, client.submits)

	require.NoError(t, a.Shutdown(context.Background()))
	require.True(t, client.closed)
}

func TestActorWithReturnsErrorAfterShutdown(t *testing.T) {
	client := &fakeClient{}
	ctx := context.Background()

	a, err := newActor(ctx, client, nil, log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))

	_, err = a.With(context.Background(), func(context.Context, Client) (any, error) {
		t.Fatal("fn should not run once the actor is shut down")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrActorShutdown)
}

func TestActorWithRespectsCallerContextCancellation(t *testing.T) {
	client := &fakeClient{}
	ctx := context.Background()

	a, err := newActor(ctx, client, nil, log.NewNopLogger())
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	// Occupy the actor goroutine with a long-running closure, then confirm
	// a second With call returns as soon as its own context is canceled
	// rather than waiting for the in-flight request to drain.
	block := make(chan struct{})
	go a.With(context.Background(), func(context.Context, Client) (any, error) {
		<-block
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	callCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = a.With(callCtx, func(context.Context, Client) (any, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}
