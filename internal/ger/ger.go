// Package ger implements the insertGlobalExitRoot recorder: translating
// the sovereign GER manager's insertGlobalExitRoot call into an update of
// the gateway's latest-GER slot and a synthesized UpdateHashChainValue
// log, without any corresponding native chain transaction.
package ger

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

//go:embed abi.json
var abiJSON string

// ABI is the insertGlobalExitRoot function's ABI definition, loaded once
// at package init.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("ger: parse abi.json: %v", err))
	}
	ABI = parsed
}

// Selector returns the 4-byte function selector insertGlobalExitRoot
// calldata is dispatched on.
func Selector() []byte {
	return ABI.Methods["insertGlobalExitRoot"].ID
}

// Decode unpacks calldata (without its leading 4-byte selector) into the
// new global exit root it carries.
func Decode(calldata []byte) (common.Hash, error) {
	values, err := ABI.Methods["insertGlobalExitRoot"].Inputs.Unpack(calldata)
	if err != nil {
		return common.Hash{}, fmt.Errorf("ger: decode insertGlobalExitRoot calldata: %w", err)
	}
	return values[0].([32]byte), nil
}

// updateHashChainValueTopic is the topic hash of the event the sovereign
// GER manager contract emits on every insertGlobalExitRoot call.
var updateHashChainValueTopic = crypto.Keccak256Hash([]byte("UpdateHashChainValue(bytes32,bytes32)"))

// Slot holds the most recently recorded global exit root. Guarded by a
// plain sync.Mutex: spec.md calls concurrent access here "unfair",
// which is exactly what Go's mutex already is.
type Slot struct {
	mu  sync.Mutex
	ger common.Hash
}

// NewSlot returns an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Latest returns the most recently recorded global exit root.
func (s *Slot) Latest() common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ger
}

// InsertGER records newGER as the latest global exit root and returns the
// UpdateHashChainValue log a coordinator watching this chain's bridge
// manager would observe. The hash-chain value is always zero: this
// gateway does not track the sovereign chain's hash-chain accumulator,
// only the most recent root.
func (s *Slot) InsertGER(newGER common.Hash) *types.Log {
	s.mu.Lock()
	s.ger = newGER
	s.mu.Unlock()

	return &types.Log{
		Topics: []common.Hash{updateHashChainValueTopic, newGER, common.Hash{}},
	}
}
