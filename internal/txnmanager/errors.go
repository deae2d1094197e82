package txnmanager

import (
	errorsmod "cosmossdk.io/errors"
)

// codespace registers this package's sentinel errors under their own
// namespace, the teacher's convention for module-level error registries
// (see x/vm/types' error codespace).
const codespace = "txnmanager"

var (
	// ErrDuplicateBegin is returned by Begin when the Ethereum transaction
	// hash is already tracked.
	ErrDuplicateBegin = errorsmod.Register(codespace, 1, "transaction already tracked")
	// ErrUnknownHash is returned by Commit when the Ethereum transaction
	// hash was never begun.
	ErrUnknownHash = errorsmod.Register(codespace, 2, "transaction not tracked")
)
