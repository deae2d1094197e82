// Package nativeclient owns the native rollup chain client and exposes it
// to the rest of the gateway through a single-goroutine actor. The client
// itself is treated as an out-of-scope external collaborator (no native
// chain client library ships in this module's dependency graph); Client
// is the thin interface the gateway actually depends on.
package nativeclient

import (
	"context"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
)

// AccountID is the native chain's account identifier.
type AccountID = accountscfg.AccountID

// TransactionID identifies a submitted native chain transaction.
type TransactionID string

// AccountKind distinguishes the handful of account shapes bootstrap
// creates.
type AccountKind int

const (
	AccountKindService AccountKind = iota
	AccountKindBridge
	AccountKindFaucet
	AccountKindWallet
)

// CreateAccountRequest describes an account to create on the native
// chain. Seed is drawn by the caller (crypto/rand); Decimals/MaxSupply
// only apply to AccountKindFaucet.
type CreateAccountRequest struct {
	Kind       AccountKind
	Seed       [32]byte
	Symbol     string
	Decimals   uint8
	MaxSupply  uint64
	BridgeFrom AccountID
}

// TransactionRequest wraps an opaque native-chain note. The note's
// internal script and proof are constructed by callers (the gateway's
// claim path, bootstrap) using packages this gateway owns; the actor only ever
// forwards the finished payload to the client.
type TransactionRequest struct {
	// NoteScript names the well-known script the note executes, for the
	// client's routing purposes only (e.g. "p2id", "claim").
	NoteScript string
	Payload    []byte
	Inputs     []uint32
}

// SyncSummary is the result of one sync-state round trip.
type SyncSummary struct {
	BlockNum          uint64
	CommittedTxnIDs   []TransactionID
	DiscardedTxnIDs   []TransactionID
	NewGlobalExitRoot []byte
}

// Listener is notified after every successful sync round.
type Listener interface {
	OnSync(summary SyncSummary)
}

// Keystore holds signing credentials for accounts the gateway controls.
// AddFalcon512Key is a stand-in for the native chain's actual signature
// scheme, which is out of scope here.
type Keystore interface {
	AddFalcon512Key(ctx context.Context, id AccountID) error
}

// Client is the native chain client's full surface this gateway needs.
// Its implementation (gRPC transport, local store, credential keystore)
// is not safe for concurrent use; every call must run on the actor
// goroutine that owns it.
type Client interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (AccountID, error)
	SubmitTransaction(ctx context.Context, from AccountID, req TransactionRequest) (TransactionID, error)
	SyncState(ctx context.Context) (SyncSummary, error)
	Keystore() Keystore
	Close() error
}
