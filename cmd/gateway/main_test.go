package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmdRegistersFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"port", "miden-store-dir", "miden-node", "chain-id", "init", "metrics-addr"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
}
