package nativeclient

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
)

// fileKeystore is a filesystem-backed Keystore, the Go analog of the
// native chain client's FilesystemKeyStore. A real Falcon-512 keypair is
// out of scope (spec Non-goals exclude the claim-note signature scheme);
// this stores a random 40-byte placeholder per account so AddFalcon512Key
// has durable, idempotent-looking state to operate on.
type fileKeystore struct {
	dir string
}

func newFileKeystore(dir string) (*fileKeystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("nativeclient: create keystore dir %s: %w", dir, err)
	}
	return &fileKeystore{dir: dir}, nil
}

func (k *fileKeystore) AddFalcon512Key(_ context.Context, id AccountID) error {
	path := filepath.Join(k.dir, id.String()+".key")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	key := make([]byte, 40)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("nativeclient: draw key material: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return fmt.Errorf("nativeclient: write key %s: %w", path, err)
	}
	return nil
}
