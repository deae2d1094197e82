// Package exit synthesizes a bridge-exit log mirrored from a processed
// claim, for coordinators that correlate claims against exit events on
// this chain rather than only watching for claims. This supplements a
// feature present in the bridge's original exit-event handling that is
// not itself one of the gateway's core translated operations.
package exit

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed abi.json
var abiJSON string

// ABI is the BridgeEvent event's ABI definition, loaded once at package
// init.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("exit: parse abi.json: %v", err))
	}
	ABI = parsed
}

// leafTypeAsset is the bridge contract's leaf-type tag for a plain asset
// transfer, the only kind this gateway ever mirrors.
const leafTypeAsset = 0

// ClaimEventLog is the subset of a decoded claimAsset call this package
// needs to build its mirrored BridgeEvent.
type ClaimEventLog struct {
	OriginNetwork      uint32
	OriginAddress      common.Address
	DestinationNetwork uint32
	DestinationAddress common.Address
	Amount             *big.Int
}

// BridgeEventLog mirrors the bridge contract's BridgeEvent: leafType,
// originNetwork, originAddress, destinationNetwork, destinationAddress,
// amount, metadata, depositCount.
type BridgeEventLog struct {
	LeafType           uint8
	OriginNetwork      uint32
	OriginAddress      common.Address
	DestinationNetwork uint32
	DestinationAddress common.Address
	Amount             *big.Int
	Metadata           []byte
	DepositCount       uint32
}

// depositCounter assigns each mirrored event a monotonically increasing
// deposit count, for the lifetime of the process.
var depositCounter atomic.Uint32

// NextDepositCount returns the next deposit count and advances the
// counter. Exported so internal/gateway can attach it directly to the
// synthesized log it returns from eth_getLogs.
func NextDepositCount() uint32 {
	return depositCounter.Add(1) - 1
}

// ReverseBridgeEvent builds the bridge-exit log a coordinator would
// expect to observe mirrored back for a completed claim: origin and
// destination are swapped, and the origin network becomes chainID (the
// chain the claim settled on, from the coordinator's point of view).
func ReverseBridgeEvent(claim ClaimEventLog, chainID uint64, depositCount uint32) BridgeEventLog {
	return BridgeEventLog{
		LeafType:           leafTypeAsset,
		OriginNetwork:      uint32(chainID),
		OriginAddress:      claim.DestinationAddress,
		DestinationNetwork: claim.OriginNetwork,
		DestinationAddress: claim.OriginAddress,
		Amount:             claim.Amount,
		Metadata:           nil,
		DepositCount:       depositCount,
	}
}

// EncodeLog ABI-encodes e as the BridgeEvent log a coordinator watching
// this chain's bridge contract would observe.
func EncodeLog(e BridgeEventLog) (*types.Log, error) {
	data, err := ABI.Events["BridgeEvent"].Inputs.Pack(
		e.LeafType,
		e.OriginNetwork,
		e.OriginAddress,
		e.DestinationNetwork,
		e.DestinationAddress,
		e.Amount,
		e.Metadata,
		e.DepositCount,
	)
	if err != nil {
		return nil, fmt.Errorf("exit: encode BridgeEvent log: %w", err)
	}
	return &types.Log{
		Topics: []common.Hash{ABI.Events["BridgeEvent"].ID},
		Data:   data,
	}, nil
}
