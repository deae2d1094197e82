package txnmanager_test

import (
	"math/big"
	"testing"

	"cosmossdk.io/log"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
	"github.com/agglayer/miden-evm-gateway/internal/txnmanager"
)

func TestBeginRejectsDuplicateHash(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	hash := common.HexToHash("0x01")

	require.NoError(t, m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, nil, nil))
	err := m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, nil, nil)
	require.ErrorIs(t, err, txnmanager.ErrDuplicateBegin)
}

func TestReceiptIsAbsentUntilCommit(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	hash := common.HexToHash("0x01")
	require.NoError(t, m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, nil, nil))

	_, _, ok := m.Receipt(hash)
	require.False(t, ok)

	require.NoError(t, m.Commit(hash, txnmanager.Result{}, 7))
	result, blockNum, ok := m.Receipt(hash)
	require.True(t, ok)
	require.Empty(t, result.Err)
	require.Equal(t, uint64(7), blockNum)
}

func TestCommitRejectsUnknownHash(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	err := m.Commit(common.HexToHash("0x99"), txnmanager.Result{}, 1)
	require.ErrorIs(t, err, txnmanager.ErrUnknownHash)
}

func TestOnSyncCommitsBeforeExpiring(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	hash := common.HexToHash("0x01")
	expiresAt := uint64(10)
	require.NoError(t, m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, &expiresAt, nil))

	// The sync round both commits the matching native transaction and
	// advances past its expiry block; the commit must win.
	m.OnSync(nativeclient.SyncSummary{
		BlockNum:        10,
		CommittedTxnIDs: []nativeclient.TransactionID{"native-1"},
	})

	result, _, ok := m.Receipt(hash)
	require.True(t, ok)
	require.True(t, result.Err == "")
}

func TestOnSyncExpiresUncommittedPastDeadline(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	hash := common.HexToHash("0x01")
	expiresAt := uint64(5)
	require.NoError(t, m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, &expiresAt, nil))

	m.OnSync(nativeclient.SyncSummary{BlockNum: 5})

	result, _, ok := m.Receipt(hash)
	require.True(t, ok)
	require.Equal(t, "expired", result.Err)
}

func TestLogsFiltersByBlockRangeAndTopics(t *testing.T) {
	m := txnmanager.New(log.NewNopLogger())
	hash := common.HexToHash("0x01")
	topic := common.HexToHash("0xdead")
	logs := []*types.Log{{Topics: []common.Hash{topic}}}
	require.NoError(t, m.Begin(hash, "native-1", &types.Transaction{}, common.Address{}, nil, logs))
	require.NoError(t, m.Commit(hash, txnmanager.Result{}, 3))

	matched := m.Logs(ethereum.FilterQuery{
		FromBlock: big.NewInt(1),
		ToBlock:   big.NewInt(5),
		Topics:    [][]common.Hash{{topic}},
	})
	require.Len(t, matched, 1)
	require.Equal(t, hash, matched[0].TxHash)

	other := common.HexToHash("0xbeef")
	matched = m.Logs(ethereum.FilterQuery{Topics: [][]common.Hash{{other}}})
	require.Empty(t, matched)
}
