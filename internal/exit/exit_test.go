package exit_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/agglayer/miden-evm-gateway/internal/exit"
)

func TestReverseBridgeEventSwapsOriginAndDestination(t *testing.T) {
	claim := exit.ClaimEventLog{
		OriginNetwork:      1,
		OriginAddress:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		DestinationNetwork: 2,
		DestinationAddress: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Amount:             big.NewInt(42),
	}

	event := exit.ReverseBridgeEvent(claim, 7, 3)
	require.Equal(t, uint32(7), event.OriginNetwork)
	require.Equal(t, claim.DestinationAddress, event.OriginAddress)
	require.Equal(t, claim.OriginNetwork, event.DestinationNetwork)
	require.Equal(t, claim.OriginAddress, event.DestinationAddress)
	require.Equal(t, claim.Amount, event.Amount)
	require.Equal(t, uint32(3), event.DepositCount)
}

func TestNextDepositCountIsMonotonic(t *testing.T) {
	first := exit.NextDepositCount()
	second := exit.NextDepositCount()
	require.Equal(t, first+1, second)
}

func TestEncodeLogUsesBridgeEventSignature(t *testing.T) {
	event := exit.BridgeEventLog{
		LeafType:           0,
		OriginNetwork:      1,
		OriginAddress:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		DestinationNetwork: 2,
		DestinationAddress: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Amount:             big.NewInt(42),
		DepositCount:       0,
	}

	log, err := exit.EncodeLog(event)
	require.NoError(t, err)
	require.Len(t, log.Topics, 1)
	require.Equal(t, exit.ABI.Events["BridgeEvent"].ID, log.Topics[0])
	require.NotEmpty(t, log.Data)
}
