// Package addrmap maps 20-byte Ethereum addresses onto the native chain's
// 15-byte account-ID space.
package addrmap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
)

// hardhatDevAddress is the canonical first Hardhat dev-signer address.
// It is zero-padded in neither the Ethereum nor the native sense, so it
// is routed to the configured wallet_hardhat account by a hard-coded
// override rather than the zero-prefix rule below.
var hardhatDevAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// IsMidenCompatible reports whether addr's first 5 bytes are all zero,
// making its trailing 15 bytes structurally eligible to be a native
// account ID.
func IsMidenCompatible(addr common.Address) bool {
	for _, b := range addr[0:5] {
		if b != 0 {
			return false
		}
	}
	return true
}

// AccountIDFromAddress derives a native account ID from addr's trailing
// 15 bytes. It returns false if addr is not Miden-compatible, or if the
// trailing bytes do not form a structurally valid account ID.
func AccountIDFromAddress(addr common.Address) (accountscfg.AccountID, bool) {
	if !IsMidenCompatible(addr) {
		return accountscfg.AccountID{}, false
	}
	var id accountscfg.AccountID
	copy(id[:], addr[5:])
	if !id.Valid() {
		return accountscfg.AccountID{}, false
	}
	return id, true
}

// AccountIDFromAddressConfig is AccountIDFromAddress with a single
// hard-coded override: the canonical Hardhat dev address always maps to
// cfg.WalletHardhat, regardless of its byte pattern.
func AccountIDFromAddressConfig(addr common.Address, cfg *accountscfg.Config) (accountscfg.AccountID, bool) {
	if addr == hardhatDevAddress {
		return cfg.WalletHardhat, true
	}
	return AccountIDFromAddress(addr)
}
