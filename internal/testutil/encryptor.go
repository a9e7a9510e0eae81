package testutil

import (
	"custody-go/internal/custody"
	"custody-go/internal/encryption"
)

// NewTestEncryptor creates a reversible, header-only encryptor for tests.
func NewTestEncryptor() custody.Encryptor {
	return encryption.NewTestEncryptor()
}
