// Package bootstrap performs the one-shot creation of the gateway's six
// well-known accounts (service, bridge, two faucets, two wallets) on a
// freshly initialized native chain store.
package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
)

const maxSupply = 1_000_000

func drawSeed() ([32]byte, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("bootstrap: draw seed: %w", err)
	}
	return seed, nil
}

func createAndAuth(ctx context.Context, client nativeclient.Client, req nativeclient.CreateAccountRequest) (nativeclient.AccountID, error) {
	id, err := client.CreateAccount(ctx, req)
	if err != nil {
		return nativeclient.AccountID{}, fmt.Errorf("bootstrap: create account: %w", err)
	}
	if err := client.Keystore().AddFalcon512Key(ctx, id); err != nil {
		return nativeclient.AccountID{}, fmt.Errorf("bootstrap: add auth key for %s: %w", id, err)
	}
	return id, nil
}

func createWallet(ctx context.Context, client nativeclient.Client) (nativeclient.AccountID, error) {
	seed, err := drawSeed()
	if err != nil {
		return nativeclient.AccountID{}, err
	}
	return createAndAuth(ctx, client, nativeclient.CreateAccountRequest{Kind: nativeclient.AccountKindWallet, Seed: seed})
}

func createBridge(ctx context.Context, client nativeclient.Client) (nativeclient.AccountID, error) {
	seed, err := drawSeed()
	if err != nil {
		return nativeclient.AccountID{}, err
	}
	return createAndAuth(ctx, client, nativeclient.CreateAccountRequest{Kind: nativeclient.AccountKindBridge, Seed: seed})
}

func createFaucet(ctx context.Context, client nativeclient.Client, symbol string, decimals uint8, bridge nativeclient.AccountID) (nativeclient.AccountID, error) {
	seed, err := drawSeed()
	if err != nil {
		return nativeclient.AccountID{}, err
	}
	return createAndAuth(ctx, client, nativeclient.CreateAccountRequest{
		Kind:       nativeclient.AccountKindFaucet,
		Seed:       seed,
		Symbol:     symbol,
		Decimals:   decimals,
		MaxSupply:  maxSupply,
		BridgeFrom: bridge,
	})
}

// registerP2ID submits a dummy P2ID note from the service account,
// registering the well-known P2ID script the claim translator's notes
// will later reuse.
func registerP2ID(ctx context.Context, client nativeclient.Client, service nativeclient.AccountID) error {
	_, err := client.SubmitTransaction(ctx, service, nativeclient.TransactionRequest{NoteScript: "p2id"})
	if err != nil {
		return fmt.Errorf("bootstrap: register p2id script: %w", err)
	}
	return nil
}

func createAccounts(ctx context.Context, client nativeclient.Client) (*accountscfg.Config, error) {
	service, err := createWallet(ctx, client)
	if err != nil {
		return nil, err
	}
	bridge, err := createBridge(ctx, client)
	if err != nil {
		return nil, err
	}
	// Decimals match the native chain's faucet defaults; the agglayer
	// faucet mints both the wrapped-ETH and wrapped-AGG test tokens at 8
	// decimals regardless of the origin token's own decimals, which
	// internal/claim's faucet selection accounts for.
	faucetEth, err := createFaucet(ctx, client, "ETH", 8, bridge)
	if err != nil {
		return nil, err
	}
	faucetAgg, err := createFaucet(ctx, client, "AGG", 8, bridge)
	if err != nil {
		return nil, err
	}
	walletHardhat, err := createWallet(ctx, client)
	if err != nil {
		return nil, err
	}
	walletSatoshi, err := createWallet(ctx, client)
	if err != nil {
		return nil, err
	}

	if err := registerP2ID(ctx, client, service); err != nil {
		return nil, err
	}

	return &accountscfg.Config{
		Service:       service,
		Bridge:        bridge,
		FaucetEth:     faucetEth,
		FaucetAgg:     faucetAgg,
		WalletHardhat: walletHardhat,
		WalletSatoshi: walletSatoshi,
	}, nil
}

// Run syncs the native chain client, creates the six well-known accounts,
// and persists the resulting config to storeDir. It returns the path the
// config was written to.
func Run(ctx context.Context, actor *nativeclient.Actor, storeDir string) (string, error) {
	result, err := actor.With(ctx, func(ctx context.Context, client nativeclient.Client) (any, error) {
		if _, err := client.SyncState(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap: initial sync: %w", err)
		}
		cfg, err := createAccounts(ctx, client)
		if err != nil {
			return nil, err
		}
		return accountscfg.Save(cfg, storeDir)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
