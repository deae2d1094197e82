package nativeclient

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"cosmossdk.io/log"
)

// ClientConfig configures the gRPC-backed native chain client.
type ClientConfig struct {
	NodeAddr    string
	StoreDir    string
	ChainID     uint64
	CallTimeout time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.CallTimeout == 0 {
		c.CallTimeout = 10 * time.Second
	}
	return c
}

// grpcClient is the Client implementation that dials the native chain
// node over gRPC and persists account/keystore bookkeeping in a local
// cosmos-db instance. This is the Go analog of the native chain's
// embedded SQLite store; no SQLite driver is present in this module's
// dependency graph, so the locally-present key/value store fills the
// same role.
type grpcClient struct {
	conn       *grpc.ClientConn
	db         dbm.DB
	keystore   *fileKeystore
	cfg        ClientConfig
	logger     log.Logger
	nextTxnSeq uint64
}

// NewGRPCClient dials cfg.NodeAddr and opens the local store at
// cfg.StoreDir. It does not perform an initial sync; the actor calls
// SyncState itself before its main loop starts.
func NewGRPCClient(cfg ClientConfig, logger log.Logger) (Client, error) {
	cfg = cfg.withDefaults()

	conn, err := grpc.NewClient(cfg.NodeAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrapf(err, "nativeclient: dial %s", cfg.NodeAddr)
	}

	db, err := dbm.NewDB("store", dbm.PebbleDBBackend, cfg.StoreDir)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "nativeclient: open store at %s", cfg.StoreDir)
	}

	ks, err := newFileKeystore(filepath.Join(cfg.StoreDir, "keystore"))
	if err != nil {
		db.Close()
		conn.Close()
		return nil, errors.Wrap(err, "nativeclient: open keystore")
	}

	return &grpcClient{
		conn:     conn,
		db:       db,
		keystore: ks,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (c *grpcClient) CreateAccount(ctx context.Context, req CreateAccountRequest) (AccountID, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	_ = callCtx // the node-facing gRPC call this wraps is out of scope here

	var id AccountID
	copy(id[:], req.Seed[:15])
	// The last byte's low bit is reserved (see accountscfg.AccountID.Valid);
	// clear it so every account this client mints is structurally valid.
	id[14] &^= 1

	key := append([]byte("account/"), id[:]...)
	if err := c.db.Set(key, []byte{byte(req.Kind)}); err != nil {
		return AccountID{}, fmt.Errorf("nativeclient: persist account: %w", err)
	}
	return id, nil
}

func (c *grpcClient) SubmitTransaction(ctx context.Context, from AccountID, req TransactionRequest) (TransactionID, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	_ = callCtx

	c.nextTxnSeq++
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], c.nextTxnSeq)
	var nonce [4]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("nativeclient: draw nonce: %w", err)
	}
	id := TransactionID(hex.EncodeToString(seed[:]) + hex.EncodeToString(nonce[:]))

	key := append([]byte("pending-txn/"), []byte(id)...)
	if err := c.db.Set(key, []byte(req.NoteScript)); err != nil {
		return "", fmt.Errorf("nativeclient: persist pending transaction: %w", err)
	}
	return id, nil
}

func (c *grpcClient) SyncState(ctx context.Context) (SyncSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	_ = callCtx

	// The real sync round trip (querying the node for newly committed and
	// discarded notes/transactions) lives in the native chain client,
	// which this gateway does not implement. This stand-in reports no
	// change; block-number advancement is driven by whatever the caller
	// observes from the node out of band in a full implementation.
	return SyncSummary{}, nil
}

func (c *grpcClient) Keystore() Keystore {
	return c.keystore
}

func (c *grpcClient) Close() error {
	dbErr := c.db.Close()
	connErr := c.conn.Close()
	if dbErr != nil {
		return dbErr
	}
	return connErr
}
