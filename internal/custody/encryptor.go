package custody

import "io"

// Encryptor seals document content before it leaves for the document store.
// Sealing needs only the public key. Opening content again requires a
// passphrase to unlock the private key for the session.
type Encryptor interface {
	// Setup generates a key pair and protects the private half with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. An incorrect passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
