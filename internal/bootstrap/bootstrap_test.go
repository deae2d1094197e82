package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
)

type fakeKeystore struct {
	added []nativeclient.AccountID
}

func (k *fakeKeystore) AddFalcon512Key(_ context.Context, id nativeclient.AccountID) error {
	k.added = append(k.added, id)
	return nil
}

type fakeClient struct {
	keystore  *fakeKeystore
	nextByte  byte
	submitted []nativeclient.TransactionRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{keystore: &fakeKeystore{}}
}

func (f *fakeClient) CreateAccount(context.Context, nativeclient.CreateAccountRequest) (nativeclient.AccountID, error) {
	f.nextByte++
	var id nativeclient.AccountID
	id[0] = f.nextByte
	return id, nil
}

func (f *fakeClient) SubmitTransaction(_ context.Context, _ nativeclient.AccountID, req nativeclient.TransactionRequest) (nativeclient.TransactionID, error) {
	f.submitted = append(f.submitted, req)
	return "txn", nil
}

func (f *fakeClient) SyncState(context.Context) (nativeclient.SyncSummary, error) {
	return nativeclient.SyncSummary{}, nil
}

func (f *fakeClient) Keystore() nativeclient.Keystore { return f.keystore }

func (f *fakeClient) Close() error { return nil }

func TestCreateAccountsProducesSixDistinctAccountsAndAuthKeys(t *testing.T) {
	client := newFakeClient()
	cfg, err := createAccounts(context.Background(), client)
	require.NoError(t, err)

	ids := []nativeclient.AccountID{cfg.Service, cfg.Bridge, cfg.FaucetEth, cfg.FaucetAgg, cfg.WalletHardhat, cfg.WalletSatoshi}
	seen := map[nativeclient.AccountID]bool{}
	for _, id := range ids {
		require.False(t, seen[id], "duplicate account id %v", id)
		seen[id] = true
	}
	require.Len(t, client.keystore.added, 6)

	require.Len(t, client.submitted, 1)
	require.Equal(t, "p2id", client.submitted[0].NoteScript)
}
