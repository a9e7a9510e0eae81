package custody

import (
	"crypto/sha256"
	"encoding/hex"

	"custody-go/internal/database/sqlc"
)

// FolderNode is the transient in-memory shape of a folder hierarchy. It is
// built by Walk on ingest and by Recreate on export, and is never persisted
// directly.
type FolderNode struct {
	Name      string
	Folders   []*FolderNode
	Documents []DocumentNode
}

// DocumentNode is either a *DocumentIntake carrying content or a
// *DocumentRef pointing at a persisted row.
type DocumentNode interface {
	NodeName() string
}

// DocumentIntake is a document with its content in memory. DocumentID is
// set once the document has been persisted.
type DocumentIntake struct {
	Name       string
	Content    []byte
	Size       int64
	Hash       string
	DocumentID string
}

// NewDocumentIntake hashes content and wraps it in an intake node.
func NewDocumentIntake(name string, content []byte) *DocumentIntake {
	return &DocumentIntake{
		Name:    name,
		Content: content,
		Size:    int64(len(content)),
		Hash:    HashContent(content),
	}
}

func (d *DocumentIntake) NodeName() string { return d.Name }

// DocumentRef references the latest live version of a persisted document.
type DocumentRef struct {
	Document *sqlc.Document
}

func (d *DocumentRef) NodeName() string { return d.Document.Name }

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Count returns the number of folders below n and documents at or below n.
func (n *FolderNode) Count() (folders, documents int) {
	stack := []*FolderNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		documents += len(cur.Documents)
		folders += len(cur.Folders)
		stack = append(stack, cur.Folders...)
	}
	return folders, documents
}
