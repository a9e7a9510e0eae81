package testutil

import (
	"context"
	"fmt"
	"sync"
)

// Identity is what a StaticIdentityVerifier reports for a token.
type Identity struct {
	Subject string
	Name    string
}

// StaticIdentityVerifier resolves tokens from a fixed table.
type StaticIdentityVerifier struct {
	mu         sync.Mutex
	identities map[string]Identity
}

func NewStaticIdentityVerifier() *StaticIdentityVerifier {
	return &StaticIdentityVerifier{identities: make(map[string]Identity)}
}

// Add makes token resolve to the given identity.
func (v *StaticIdentityVerifier) Add(token, subject, name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.identities[token] = Identity{Subject: subject, Name: name}
}

func (v *StaticIdentityVerifier) RetrieveIdentity(ctx context.Context, token string) (string, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.identities[token]
	if !ok {
		return "", "", fmt.Errorf("token %q not recognised", token)
	}
	return id.Subject, id.Name, nil
}

// StaticManifestVerifier approves only the manifest hashes it was given.
type StaticManifestVerifier struct {
	Approved map[string]bool
}

func (v *StaticManifestVerifier) Verify(ctx context.Context, manifestHash, reference string) (bool, error) {
	return v.Approved[manifestHash], nil
}
