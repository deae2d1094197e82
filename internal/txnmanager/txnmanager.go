// Package txnmanager tracks in-flight Ethereum transactions submitted to
// the gateway through their begin -> commit(ok|err) | expire lifecycle,
// correlating native chain transaction IDs back to the Ethereum tx hash
// the coordinator knows about.
package txnmanager

import (
	"fmt"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
)

// Capacity is the number of in-flight transactions the manager tracks at
// once. Once full, the least recently touched entry is evicted — a
// transaction that is evicted before the native chain settles it is
// simply no longer observable through TransactionReceipt, matching the
// "bounded memory over unbounded history" tradeoff spec.md accepts.
const Capacity = 64

// Result is the outcome of a settled transaction: Err is empty on
// success, or the failure reason otherwise.
type Result struct {
	Err string
}

func (r Result) ok() bool { return r.Err == "" }

type receipt struct {
	nativeID  nativeclient.TransactionID
	envelope  *types.Transaction
	signer    common.Address
	expiresAt *uint64

	result   *Result
	blockNum uint64
	logs     []*types.Log
}

// Manager is an LRU-bounded registry of in-flight Ethereum transactions.
// It is safe for concurrent use.
type Manager struct {
	mu           sync.Mutex
	transactions *lru.Cache[common.Hash, *receipt]
	logger       log.Logger
}

// New returns a Manager bounded at Capacity entries.
func New(logger log.Logger) *Manager {
	cache, err := lru.New[common.Hash, *receipt](Capacity)
	if err != nil {
		// Capacity is a positive compile-time constant; lru.New only
		// fails for size <= 0.
		panic(fmt.Sprintf("txnmanager: %v", err))
	}
	return &Manager{transactions: cache, logger: logger}
}

// Begin registers a newly-submitted transaction. It returns an error if
// txnHash is already tracked.
func (m *Manager) Begin(txnHash common.Hash, nativeID nativeclient.TransactionID, envelope *types.Transaction, signer common.Address, expiresAt *uint64, logs []*types.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions.Get(txnHash); ok {
		return errorsmod.Wrapf(ErrDuplicateBegin, "%s", txnHash)
	}
	m.transactions.Add(txnHash, &receipt{
		nativeID:  nativeID,
		envelope:  envelope,
		signer:    signer,
		expiresAt: expiresAt,
		logs:      logs,
	})
	return nil
}

// Commit settles txnHash with result at blockNum.
func (m *Manager) Commit(txnHash common.Hash, result Result, blockNum uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.transactions.Get(txnHash)
	if !ok {
		return errorsmod.Wrapf(ErrUnknownHash, "%s", txnHash)
	}
	r.result = &result
	r.blockNum = blockNum

	if result.ok() {
		m.logger.Info("committed transaction", "eth_txn", txnHash, "native_txn", r.nativeID)
	} else {
		m.logger.Error("failed transaction", "eth_txn", txnHash, "native_txn", r.nativeID, "reason", result.Err)
	}
	return nil
}

// Receipt returns the settled result and block number for txnHash, or
// false if it is unknown or still pending.
func (m *Manager) Receipt(txnHash common.Hash) (Result, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.transactions.Get(txnHash)
	if !ok || r.result == nil {
		return Result{}, 0, false
	}
	return *r.result, r.blockNum, true
}

// Transaction returns the tracked envelope for txnHash along with the
// block number it settled in, if any.
func (m *Manager) Transaction(txnHash common.Hash) (*types.Transaction, common.Address, *uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.transactions.Get(txnHash)
	if !ok {
		return nil, common.Address{}, nil, false
	}
	var blockNum *uint64
	if r.result != nil {
		bn := r.blockNum
		blockNum = &bn
	}
	return r.envelope, r.signer, blockNum, true
}

func matchesBlockRange(filter ethereum.FilterQuery, blockNum uint64) bool {
	if filter.FromBlock != nil && blockNum < filter.FromBlock.Uint64() {
		return false
	}
	if filter.ToBlock != nil && blockNum > filter.ToBlock.Uint64() {
		return false
	}
	return true
}

func matchesTopics(filter ethereum.FilterQuery, topics []common.Hash) bool {
	if len(filter.Topics) > len(topics) {
		return false
	}
	for i, wanted := range filter.Topics {
		if len(wanted) == 0 {
			continue
		}
		match := false
		for _, w := range wanted {
			if w == topics[i] {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// Logs returns every tracked log matching filter, go-ethereum's
// eth_getLogs selection semantics: an empty topic slot matches anything,
// a non-empty slot matches any of its listed hashes.
func (m *Manager) Logs(filter ethereum.FilterQuery) []*types.Log {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []*types.Log
	for _, txnHash := range m.transactions.Keys() {
		r, ok := m.transactions.Peek(txnHash)
		if !ok || r.result == nil {
			continue
		}
		if !matchesBlockRange(filter, r.blockNum) {
			continue
		}
		for _, l := range r.logs {
			if !matchesTopics(filter, l.Topics) {
				continue
			}
			clone := *l
			clone.TxHash = txnHash
			clone.BlockNumber = r.blockNum
			results = append(results, &clone)
		}
	}
	return results
}

// LogsFor returns the logs contributed by txnHash's own transaction,
// regardless of filter, or false if txnHash is unknown.
func (m *Manager) LogsFor(txnHash common.Hash) ([]*types.Log, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.transactions.Get(txnHash)
	if !ok {
		return nil, false
	}
	logs := make([]*types.Log, len(r.logs))
	for i, l := range r.logs {
		clone := *l
		clone.TxHash = txnHash
		clone.BlockNumber = r.blockNum
		logs[i] = &clone
	}
	return logs, true
}

// pendingByNativeID returns the Ethereum hash of the pending (unsettled)
// transaction tracked under nativeID, if any. It must not be called
// while m.mu is held, since it acquires m.mu itself.
func (m *Manager) pendingByNativeID(nativeID nativeclient.TransactionID) (common.Hash, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, txnHash := range m.transactions.Keys() {
		r, ok := m.transactions.Peek(txnHash)
		if ok && r.result == nil && r.nativeID == nativeID {
			return txnHash, true
		}
	}
	return common.Hash{}, false
}

func (m *Manager) commitPending(ids []nativeclient.TransactionID, blockNum uint64) {
	for _, id := range ids {
		if hash, ok := m.pendingByNativeID(id); ok {
			_ = m.Commit(hash, Result{}, blockNum)
		}
	}
}

func (m *Manager) expiredPending(blockNum uint64) []common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []common.Hash
	for _, txnHash := range m.transactions.Keys() {
		r, ok := m.transactions.Peek(txnHash)
		if !ok || r.result != nil {
			continue
		}
		expiresAt := ^uint64(0)
		if r.expiresAt != nil {
			expiresAt = *r.expiresAt
		}
		if blockNum >= expiresAt {
			results = append(results, txnHash)
		}
	}
	return results
}

func (m *Manager) expirePending(blockNum uint64) {
	for _, hash := range m.expiredPending(blockNum) {
		_ = m.Commit(hash, Result{Err: "expired"}, blockNum)
	}
}

// OnSync implements nativeclient.Listener. Commits observed in this sync
// round are applied before expirations are swept, so a transaction that
// both settles and crosses its expiry block in the same round is
// recorded as committed, never expired.
func (m *Manager) OnSync(summary nativeclient.SyncSummary) {
	m.commitPending(summary.CommittedTxnIDs, summary.BlockNum)
	m.expirePending(summary.BlockNum)
}
