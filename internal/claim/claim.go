// Package claim translates a decoded claimAsset call into the inputs a
// native chain claim note needs, following the bridge's claimAsset ABI
// (https://github.com/agglayer/agglayer-contracts, PolygonZkEVMBridgeV2).
package claim

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
	"github.com/agglayer/miden-evm-gateway/internal/addrmap"
	"github.com/agglayer/miden-evm-gateway/internal/amount"
	"github.com/agglayer/miden-evm-gateway/internal/feltpack"
)

//go:embed abi.json
var abiJSON string

// ABI is the claimAsset function's ABI definition, loaded once at
// package init.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("claim: parse abi.json: %v", err))
	}
	ABI = parsed
}

// Selector returns the 4-byte function selector claimAsset calldata is
// dispatched on.
func Selector() []byte {
	return ABI.Methods["claimAsset"].ID
}

// ErrInvalidDestination is returned when a claim's destination address
// does not map to a valid native chain account.
var ErrInvalidDestination = errors.New("claim: destination address does not map to a valid account")

// ClaimAssetCall is the claimAsset function's decoded arguments.
type ClaimAssetCall struct {
	SmtProofLocalExitRoot  [32][32]byte
	SmtProofRollupExitRoot [32][32]byte
	GlobalIndex            *big.Int
	MainnetExitRoot        [32]byte
	RollupExitRoot         [32]byte
	OriginNetwork          uint32
	OriginTokenAddress     common.Address
	DestinationNetwork     uint32
	DestinationAddress     common.Address
	Amount                 *big.Int
	Metadata               []byte
}

// Decode unpacks calldata (without its leading 4-byte selector) into a
// ClaimAssetCall.
func Decode(calldata []byte) (*ClaimAssetCall, error) {
	values, err := ABI.Methods["claimAsset"].Inputs.Unpack(calldata)
	if err != nil {
		return nil, fmt.Errorf("claim: decode claimAsset calldata: %w", err)
	}

	call := &ClaimAssetCall{
		SmtProofLocalExitRoot:  values[0].([32][32]byte),
		SmtProofRollupExitRoot: values[1].([32][32]byte),
		GlobalIndex:            values[2].(*big.Int),
		MainnetExitRoot:        values[3].([32]byte),
		RollupExitRoot:         values[4].([32]byte),
		OriginNetwork:          values[5].(uint32),
		OriginTokenAddress:     values[6].(common.Address),
		DestinationNetwork:     values[7].(uint32),
		DestinationAddress:     values[8].(common.Address),
		Amount:                 values[9].(*big.Int),
		Metadata:               values[10].([]byte),
	}
	return call, nil
}

// Faucet identifies which of the gateway's two well-known faucets backs
// a claim, and the decimals conversion it applies.
type Faucet struct {
	Account     accountscfg.AccountID
	DecimalsIn  uint8
	DecimalsOut uint8
}

// SelectFaucet returns the faucet a claim routes through: faucet_eth for
// the zero origin-token address (native ETH on the origin chain, 18
// decimals), faucet_agg for everything else (origin decimals 8, matching
// the ERC-20 test tokens this bridge setup expects).
func SelectFaucet(cfg *accountscfg.Config, originTokenAddress common.Address) Faucet {
	if originTokenAddress == (common.Address{}) {
		return Faucet{Account: cfg.FaucetEth, DecimalsIn: 18, DecimalsOut: 8}
	}
	return Faucet{Account: cfg.FaucetAgg, DecimalsIn: 8, DecimalsOut: 8}
}

// NoteInputs is the native chain claim note's field-element inputs,
// packed from call's byte fields per feltpack's little-endian scheme.
type NoteInputs struct {
	SmtProofLocalExitRoot  []feltpack.Felt
	SmtProofRollupExitRoot []feltpack.Felt
	GlobalIndex            [feltpack.FeltsPerWord]feltpack.Felt
	MainnetExitRoot        [32]byte
	RollupExitRoot         [32]byte
	OriginNetwork          feltpack.Felt
	OriginTokenAddress     [20]byte
	DestinationNetwork     feltpack.Felt
	DestinationAddress     [20]byte
	AmountU256             [feltpack.FeltsPerWord]feltpack.Felt
	Metadata               [feltpack.FeltsPerWord]feltpack.Felt
}

// Translated is the result of translating a claimAsset call: the note
// inputs ready to submit, the resolved destination account, the
// rescaled amount, the selected faucet, and whether the metadata was
// truncated. The ClaimEvent log is built separately by EventLog.
type Translated struct {
	Inputs            NoteInputs
	Destination       accountscfg.AccountID
	Amount            uint32
	Faucet            Faucet
	MetadataTruncated bool
}

func packBytes32Array(values [32][32]byte) []feltpack.Felt {
	felts := make([]feltpack.Felt, 0, 32*feltpack.FeltsPerWord)
	for _, v := range values {
		felts = append(felts, feltpack.BytesToFelts(v[:])...)
	}
	return felts
}

// Translate performs the claim calldata -> native note steps: faucet
// selection, destination resolution, amount rescaling, and bytes->felts
// packing. It does not touch the native chain client; callers submit
// the result through nativeclient.Actor.With themselves.
func Translate(call *ClaimAssetCall, cfg *accountscfg.Config) (*Translated, error) {
	faucet := SelectFaucet(cfg, call.OriginTokenAddress)

	destination, ok := addrmap.AccountIDFromAddressConfig(call.DestinationAddress, cfg)
	if !ok {
		return nil, ErrInvalidDestination
	}

	amountU256, overflow := uint256.FromBig(call.Amount)
	if overflow {
		return nil, fmt.Errorf("claim: amount %s overflows 256 bits", call.Amount)
	}
	rescaled, err := amount.ValidateAmount(amountU256, faucet.DecimalsIn, faucet.DecimalsOut)
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}

	metadataFelts, truncated := feltpack.TruncateMetadata(call.Metadata)

	globalIndexU256, overflow := uint256.FromBig(call.GlobalIndex)
	if overflow {
		return nil, fmt.Errorf("claim: global index %s overflows 256 bits", call.GlobalIndex)
	}

	inputs := NoteInputs{
		SmtProofLocalExitRoot:  packBytes32Array(call.SmtProofLocalExitRoot),
		SmtProofRollupExitRoot: packBytes32Array(call.SmtProofRollupExitRoot),
		GlobalIndex:            feltpack.U256ToFelts(globalIndexU256),
		MainnetExitRoot:        call.MainnetExitRoot,
		RollupExitRoot:         call.RollupExitRoot,
		OriginNetwork:          call.OriginNetwork,
		OriginTokenAddress:     call.OriginTokenAddress,
		DestinationNetwork:     call.DestinationNetwork,
		DestinationAddress:     call.DestinationAddress,
		AmountU256:             feltpack.U256ToFelts(amountU256),
		Metadata:               metadataFelts,
	}

	return &Translated{
		Inputs:            inputs,
		Destination:       destination,
		Amount:            rescaled,
		Faucet:            faucet,
		MetadataTruncated: truncated,
	}, nil
}

// Flatten concatenates every field-element input the native claim note
// needs, in the order the note script expects them: the two Merkle
// paths, the global index, both exit roots and networks (felt-packed),
// both addresses (felt-packed), the rescaled amount, and the metadata
// buffer.
func (ni NoteInputs) Flatten() []feltpack.Felt {
	felts := make([]feltpack.Felt, 0, len(ni.SmtProofLocalExitRoot)+len(ni.SmtProofRollupExitRoot)+4*feltpack.FeltsPerWord+2)
	felts = append(felts, ni.SmtProofLocalExitRoot...)
	felts = append(felts, ni.SmtProofRollupExitRoot...)
	felts = append(felts, ni.GlobalIndex[:]...)
	felts = append(felts, feltpack.BytesToFelts(ni.MainnetExitRoot[:])...)
	felts = append(felts, feltpack.BytesToFelts(ni.RollupExitRoot[:])...)
	felts = append(felts, ni.OriginNetwork)
	felts = append(felts, feltpack.BytesToFelts(ni.OriginTokenAddress[:])...)
	felts = append(felts, ni.DestinationNetwork)
	felts = append(felts, feltpack.BytesToFelts(ni.DestinationAddress[:])...)
	felts = append(felts, ni.AmountU256[:]...)
	felts = append(felts, ni.Metadata[:]...)
	return felts
}

// EventLog builds the ClaimEvent log a completed claim reports back to
// eth_getLogs pollers, ABI-encoding call's global index, origin network,
// origin token address, destination address, and amount as the event's
// non-indexed data.
func EventLog(call *ClaimAssetCall) (*types.Log, error) {
	data, err := ABI.Events["ClaimEvent"].Inputs.Pack(
		call.GlobalIndex,
		call.OriginNetwork,
		call.OriginTokenAddress,
		call.DestinationAddress,
		call.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("claim: encode ClaimEvent log: %w", err)
	}
	return &types.Log{
		Topics: []common.Hash{ABI.Events["ClaimEvent"].ID},
		Data:   data,
	}, nil
}
