// Package hexcodec parses, with the standard library only, the two hex
// input shapes the gateway accepts from the coordinator: arbitrary
// 0x-prefixed byte payloads (calldata, raw transactions) and 0x-prefixed
// quantities (block numbers).
package hexcodec

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// DecodePrefixed decodes a hex string, stripping an optional "0x" prefix.
// Unlike hexutil.Decode it does not require the prefix to be present.
func DecodePrefixed(input string) ([]byte, error) {
	trimmed := strings.TrimPrefix(input, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("hexcodec: malformed hex payload: %w", err)
	}
	return b, nil
}

// DecodeQuantity parses a 0x-prefixed quantity such as the block number
// argument of eth_getBlockByNumber. It does not accept the bare tags
// ("latest", "pending", ...) callers must special-case those themselves.
func DecodeQuantity(input string) (uint64, error) {
	trimmed := strings.TrimPrefix(input, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("hexcodec: empty quantity")
	}
	value, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("hexcodec: bad block number: %w", err)
	}
	return value, nil
}

// EncodeQuantity formats a u64 as a 0x-prefixed quantity with no leading
// zeros, per the JSON-RPC quantity encoding rules ("0x0" for zero).
func EncodeQuantity(value uint64) string {
	return "0x" + strconv.FormatUint(value, 16)
}
