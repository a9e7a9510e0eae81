package encryption

import (
	"fmt"

	"custody-go/internal/config"
	"custody-go/internal/custody"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" (or empty) disables sealing and returns a nil Encryptor.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (custody.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
