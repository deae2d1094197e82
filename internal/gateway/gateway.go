// Package gateway wires the calldata translators, the native-client
// actor, and the transaction manager into the two operations
// eth_sendRawTransaction and eth_getTransactionReceipt need: submitting a
// decoded transaction and synthesizing a receipt for one already tracked.
package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
	"github.com/agglayer/miden-evm-gateway/internal/blocknum"
	"github.com/agglayer/miden-evm-gateway/internal/claim"
	"github.com/agglayer/miden-evm-gateway/internal/exit"
	"github.com/agglayer/miden-evm-gateway/internal/ger"
	"github.com/agglayer/miden-evm-gateway/internal/hexcodec"
	"github.com/agglayer/miden-evm-gateway/internal/metrics"
	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
	"github.com/agglayer/miden-evm-gateway/internal/txnmanager"
)

// expirationDelta is the number of blocks a submitted claim has to
// commit before the transaction manager declares it expired.
const expirationDelta = 10

// ErrUnhandledMethod is returned when a raw transaction's calldata does
// not match any selector this gateway translates.
var ErrUnhandledMethod = errors.New("gateway: unhandled transaction method")

// Actor is the slice of *nativeclient.Actor this package needs: just the
// one entry point through which the claim path reaches the native chain
// client. Depending on the interface rather than the concrete type lets
// tests drive Gateway against a fake actor without dialing a node.
type Actor interface {
	With(ctx context.Context, fn func(context.Context, nativeclient.Client) (any, error)) (any, error)
}

// Gateway holds every piece a JSON-RPC handler needs to submit and
// report on translated transactions. It is safe for concurrent use: the
// actor, transaction manager, and block tracker all manage their own
// synchronization.
type Gateway struct {
	actor    Actor
	txns     *txnmanager.Manager
	blocks   *blocknum.Tracker
	gerSlot  *ger.Slot
	accounts *accountscfg.Config
	chainID  uint64
	logger   log.Logger
}

// New returns a Gateway wired to the given collaborators.
func New(actor Actor, txns *txnmanager.Manager, blocks *blocknum.Tracker, gerSlot *ger.Slot, accounts *accountscfg.Config, chainID uint64, logger log.Logger) *Gateway {
	return &Gateway{
		actor:    actor,
		txns:     txns,
		blocks:   blocks,
		gerSlot:  gerSlot,
		accounts: accounts,
		chainID:  chainID,
		logger:   logger,
	}
}

// decodeEnvelope hex-decodes rawHex and EIP-2718-decodes the result,
// accepting legacy and EIP-1559 envelopes only.
func decodeEnvelope(rawHex string) (*types.Transaction, error) {
	data, err := hexcodec.DecodePrefixed(rawHex)
	if err != nil {
		return nil, fmt.Errorf("gateway: decode raw transaction: %w", err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("gateway: decode transaction envelope: %w", err)
	}
	switch tx.Type() {
	case types.LegacyTxType, types.DynamicFeeTxType:
	default:
		return nil, fmt.Errorf("gateway: unsupported transaction type %d", tx.Type())
	}
	return tx, nil
}

func drawSerialNumber() ([4]uint32, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return [4]uint32{}, fmt.Errorf("gateway: draw serial number: %w", err)
	}
	var serial [4]uint32
	for i := range serial {
		serial[i] = uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
	}
	return serial, nil
}

// SendRawTransaction decodes rawHex, dispatches it to the claim or GER
// translator by calldata selector, submits the result through the actor,
// and begins tracking it in the transaction manager. It returns the
// Ethereum transaction hash the coordinator polls on.
func (g *Gateway) SendRawTransaction(ctx context.Context, rawHex string) (common.Hash, error) {
	tx, err := decodeEnvelope(rawHex)
	if err != nil {
		return common.Hash{}, err
	}

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(g.chainID))
	from, err := types.Sender(signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gateway: recover signer: %w", err)
	}

	hash := tx.Hash()
	data := tx.Data()

	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], claim.Selector()):
		return hash, g.submitClaim(ctx, tx, hash, from, data[4:])
	case len(data) >= 4 && bytes.Equal(data[:4], ger.Selector()):
		return hash, g.submitGER(tx, hash, from, data[4:])
	default:
		return common.Hash{}, ErrUnhandledMethod
	}
}

func (g *Gateway) submitClaim(ctx context.Context, tx *types.Transaction, hash common.Hash, from common.Address, calldata []byte) error {
	call, err := claim.Decode(calldata)
	if err != nil {
		return err
	}
	translated, err := claim.Translate(call, g.accounts)
	if err != nil {
		return err
	}
	eventLog, err := claim.EventLog(call)
	if err != nil {
		return err
	}
	bridgeLog, err := exit.EncodeLog(exit.ReverseBridgeEvent(exit.ClaimEventLog{
		OriginNetwork:      call.OriginNetwork,
		OriginAddress:      call.OriginTokenAddress,
		DestinationNetwork: call.DestinationNetwork,
		DestinationAddress: call.DestinationAddress,
		Amount:             call.Amount,
	}, g.chainID, exit.NextDepositCount()))
	if err != nil {
		return err
	}
	serial, err := drawSerialNumber()
	if err != nil {
		return err
	}
	if translated.MetadataTruncated {
		g.logger.Debug("claim metadata truncated to 32 bytes", "eth_txn", hash, "len", len(call.Metadata))
	}

	inputs := translated.Inputs.Flatten()
	for _, s := range serial {
		inputs = append(inputs, s)
	}

	result, err := g.actor.With(ctx, func(ctx context.Context, client nativeclient.Client) (any, error) {
		return client.SubmitTransaction(ctx, g.accounts.Service, nativeclient.TransactionRequest{
			NoteScript: "claim",
			Inputs:     inputs,
		})
	})
	if err != nil {
		g.logger.Error("claim submission failed", "eth_txn", hash, "error", err)
		return fmt.Errorf("gateway: submit claim: %w", err)
	}
	nativeID := result.(nativeclient.TransactionID)

	expiresAt := g.blocks.Latest() + expirationDelta
	if err := g.txns.Begin(hash, nativeID, tx, from, &expiresAt, []*types.Log{eventLog, bridgeLog}); err != nil {
		return fmt.Errorf("gateway: track claim: %w", err)
	}
	metrics.ClaimsSubmitted.Inc(1)
	return nil
}

func (g *Gateway) submitGER(tx *types.Transaction, hash common.Hash, from common.Address, calldata []byte) error {
	root, err := ger.Decode(calldata)
	if err != nil {
		return err
	}
	gerLog := g.gerSlot.InsertGER(root)

	blockNum := g.blocks.Latest()
	if err := g.txns.Begin(hash, "", tx, from, nil, []*types.Log{gerLog}); err != nil {
		return fmt.Errorf("gateway: track ger insertion: %w", err)
	}
	// GER insertion never touches the native chain client: it finalizes
	// synchronously, at the current block, the moment it is received.
	if err := g.txns.Commit(hash, txnmanager.Result{}, blockNum); err != nil {
		return fmt.Errorf("gateway: finalize ger insertion: %w", err)
	}
	metrics.GERInsertions.Inc(1)
	return nil
}

// Receipt is the synthesized transaction receipt eth_getTransactionReceipt
// returns: Status reflects the settled result, and the gas-used and
// gas-price fields are always zero, since this gateway has no real gas
// market.
type Receipt struct {
	TransactionHash   common.Hash
	BlockNumber       uint64
	Status            bool
	FailureReason     string
	From              common.Address
	To                *common.Address
	Logs              []*types.Log
	CumulativeGasUsed uint64
	GasUsed           uint64
	EffectiveGasPrice uint64
}

// TransactionReceipt returns the synthesized receipt for hash, or false
// if hash is unknown or still pending.
func (g *Gateway) TransactionReceipt(hash common.Hash) (*Receipt, bool) {
	result, blockNum, ok := g.txns.Receipt(hash)
	if !ok {
		return nil, false
	}
	tx, from, _, ok := g.txns.Transaction(hash)
	if !ok {
		return nil, false
	}
	logs, _ := g.txns.LogsFor(hash)

	return &Receipt{
		TransactionHash: hash,
		BlockNumber:     blockNum,
		Status:          result.Err == "",
		FailureReason:   result.Err,
		From:            from,
		To:              tx.To(),
		Logs:            logs,
	}, true
}

// ChainID returns the chain ID this gateway presents to the coordinator.
func (g *Gateway) ChainID() uint64 {
	return g.chainID
}

// BlockNumber returns the latest block number observed by the native
// chain's sync loop.
func (g *Gateway) BlockNumber() uint64 {
	return g.blocks.Latest()
}

// Transaction returns the tracked envelope and signer for hash.
func (g *Gateway) Transaction(hash common.Hash) (*types.Transaction, common.Address, bool) {
	tx, from, _, ok := g.txns.Transaction(hash)
	return tx, from, ok
}

// Logs returns every tracked log matching filter.
func (g *Gateway) Logs(filter ethereum.FilterQuery) []*types.Log {
	return g.txns.Logs(filter)
}

// Shutdown stops the underlying native-client actor, if it supports
// shutting down (the production *nativeclient.Actor does).
func (g *Gateway) Shutdown(ctx context.Context) error {
	type shutdowner interface {
		Shutdown(ctx context.Context) error
	}
	if s, ok := g.actor.(shutdowner); ok {
		return s.Shutdown(ctx)
	}
	return nil
}
