package custody_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"custody-go/internal/custody"
	"custody-go/internal/database/sqlc"
	"custody-go/internal/testutil"
)

func mustUser(t *testing.T, env *testutil.TestEnv, email string) *sqlc.User {
	t.Helper()
	user, err := env.Service.CreateUser(context.Background(), custody.NewUser{Email: email, Role: custody.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return user
}

// notesArchive is a bundle with a.txt (10 bytes) and sub/b.txt (5 bytes)
// below a single top-level directory.
func notesArchive(t *testing.T) []byte {
	t.Helper()
	return testutil.Tar(t,
		testutil.TarEntry{Name: "notes/"},
		testutil.TarEntry{Name: "notes/a.txt", Content: "0123456789"},
		testutil.TarEntry{Name: "notes/sub/"},
		testutil.TarEntry{Name: "notes/sub/b.txt", Content: "hello"},
	)
}

func mustNotes(t *testing.T, env *testutil.TestEnv, owner *sqlc.User) *sqlc.Collection {
	t.Helper()
	col, err := env.Service.CreateCollection(context.Background(), owner, "notes.tar", notesArchive(t), custody.CollectionOptions{})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	return col
}

// mustCollectionFromFiles ingests files (relative path -> content) as a collection.
func mustCollectionFromFiles(t *testing.T, env *testutil.TestEnv, owner *sqlc.User, files map[string]string) *sqlc.Collection {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, files)
	col, err := env.Service.CreateCollectionFromDirectory(context.Background(), owner, dir, custody.CollectionOptions{Name: "fixture"})
	if err != nil {
		t.Fatalf("CreateCollectionFromDirectory() error = %v", err)
	}
	return col
}

// latestByName looks a live-chain document up without registering access.
func latestByName(t *testing.T, env *testutil.TestEnv, col *sqlc.Collection, name string) *sqlc.Document {
	t.Helper()
	docs, err := env.Database.ListLatestDocumentsByName(context.Background(), col.ID, name)
	if err != nil {
		t.Fatalf("ListLatestDocumentsByName(%s) error = %v", name, err)
	}
	if len(docs) != 1 {
		t.Fatalf("ListLatestDocumentsByName(%s) = %d documents, want 1", name, len(docs))
	}
	return docs[0]
}

// treeShape renders a folder tree as sorted "path:size" lines.
func treeShape(node *custody.FolderNode) string {
	var lines []string
	var walk func(prefix string, n *custody.FolderNode)
	walk = func(prefix string, n *custody.FolderNode) {
		for _, d := range n.Documents {
			size := int64(-1)
			switch v := d.(type) {
			case *custody.DocumentRef:
				size = v.Document.Size
			case *custody.DocumentIntake:
				size = v.Size
			}
			lines = append(lines, prefix+d.NodeName()+":"+strconv.FormatInt(size, 10))
		}
		for _, f := range n.Folders {
			lines = append(lines, prefix+f.Name+"/")
			walk(prefix+f.Name+"/", f)
		}
	}
	walk("", node)
	return strings.Join(lines, "\n")
}

func idOf(u *sqlc.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
