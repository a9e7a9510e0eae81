package testutil

import (
	"testing"

	"custody-go/internal/custody"
	"custody-go/internal/docstore"
	"custody-go/internal/fs"
)

// TestEnv bundles a CustodyService with the collaborators tests inspect.
type TestEnv struct {
	Service  *custody.CustodyService
	Database custody.Database
	Store    *docstore.MemoryStore
	Staging  custody.StagingArea
	FS       custody.FilesystemManager
	Clock    *StubClock
	IDs      *StubIDGenerator
	Identity *StaticIdentityVerifier
}

// NewTestEnv wires a service over an in-memory database, an in-memory
// document store and a staging area under t.TempDir.
func NewTestEnv(t *testing.T, opts ...custody.Option) *TestEnv {
	t.Helper()

	clock := FixedClock()
	ids := NewStubIDGenerator()
	fsmgr := fs.NewOSFilesystemManager(nil)
	db := NewTestDatabase(t, clock, ids)
	store := docstore.NewMemoryStore("test-store")
	area := NewTestStagingArea(t, fsmgr)
	identity := NewStaticIdentityVerifier()

	opts = append([]custody.Option{custody.WithIdentityVerifier(identity)}, opts...)
	svc := custody.NewCustodyService(db, store, area, fsmgr, custody.NewNopLogger(), clock, ids, opts...)

	return &TestEnv{
		Service:  svc,
		Database: db,
		Store:    store,
		Staging:  area,
		FS:       fsmgr,
		Clock:    clock,
		IDs:      ids,
		Identity: identity,
	}
}
