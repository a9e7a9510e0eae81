package custody

import (
	"context"
	"fmt"
	"path/filepath"

	"custody-go/internal/database/sqlc"
)

// Walk reads the directory at path into an in-memory tree. Every file is
// read and hashed; entries matching the configured ignore patterns are
// skipped, as is anything that is neither a regular file nor a directory.
func (s *CustodyService) Walk(ctx context.Context, path string) (*FolderNode, error) {
	p, err := s.fsmgr.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if !p.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", p, ErrInvalidArgument)
	}

	type pending struct {
		node *FolderNode
		abs  string
		rel  string
	}

	root := &FolderNode{Name: p.Base()}
	stack := []pending{{node: root, abs: p.String()}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := s.fsmgr.ReadDir(cur.abs)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", cur.abs, err)
		}
		for _, entry := range entries {
			rel := filepath.Join(cur.rel, entry.Name())
			if s.fsmgr.IsIgnored(rel) {
				s.logger.Debug("ignoring path", "path", rel)
				continue
			}
			abs := filepath.Join(cur.abs, entry.Name())
			switch {
			case entry.IsDir():
				child := &FolderNode{Name: entry.Name()}
				cur.node.Folders = append(cur.node.Folders, child)
				stack = append(stack, pending{node: child, abs: abs, rel: rel})
			case entry.Type().IsRegular():
				content, err := s.fsmgr.ReadFile(abs)
				if err != nil {
					return nil, fmt.Errorf("reading file %s: %w", abs, err)
				}
				cur.node.Documents = append(cur.node.Documents, NewDocumentIntake(entry.Name(), content))
			default:
				s.logger.Warn("skipping special file", "path", rel)
			}
		}
	}
	return root, nil
}

// Recreate rebuilds the live tree below folder. Each document is followed
// along its update chain to the latest version; a delete event anywhere on
// the chain drops the document. One access event is registered per document
// included.
func (s *CustodyService) Recreate(ctx context.Context, actor *sqlc.User, folder *sqlc.Folder) (*FolderNode, error) {
	node := &FolderNode{Name: folder.Name}

	heads, err := s.database.ListChainHeads(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	for _, head := range heads {
		latest, deleted, err := s.Latest(ctx, head)
		if err != nil {
			return nil, err
		}
		if deleted {
			continue
		}
		if _, err := s.RegisterDocumentEvent(ctx, latest, actor, EventAccess); err != nil {
			return nil, err
		}
		node.Documents = append(node.Documents, &DocumentRef{Document: latest})
	}

	children, err := s.database.ListChildFolders(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		sub, err := s.Recreate(ctx, actor, child)
		if err != nil {
			return nil, err
		}
		node.Folders = append(node.Folders, sub)
	}
	return node, nil
}

// Populate returns a copy of tree in which every document reference is
// replaced by its content fetched from the store. Intake documents that were
// never persisted are rejected.
func (s *CustodyService) Populate(ctx context.Context, tree *FolderNode) (*FolderNode, error) {
	out := &FolderNode{Name: tree.Name}
	for _, node := range tree.Documents {
		switch d := node.(type) {
		case *DocumentRef:
			content, err := s.fetchContent(ctx, d.Document)
			if err != nil {
				return nil, err
			}
			intake := NewDocumentIntake(d.Document.Name, content)
			intake.DocumentID = d.Document.ID
			if intake.Hash != d.Document.Hash {
				s.logger.Warn("stored content hash mismatch", "document", d.Document.ID, "want", d.Document.Hash, "got", intake.Hash)
			}
			out.Documents = append(out.Documents, intake)
		case *DocumentIntake:
			if d.DocumentID == "" {
				return nil, fmt.Errorf("populating %q: document was never persisted: %w", d.Name, ErrIntegrity)
			}
			out.Documents = append(out.Documents, d)
		default:
			return nil, fmt.Errorf("populating %q: unexpected node %T: %w", node.NodeName(), node, ErrIntegrity)
		}
	}
	for _, child := range tree.Folders {
		sub, err := s.Populate(ctx, child)
		if err != nil {
			return nil, err
		}
		out.Folders = append(out.Folders, sub)
	}
	return out, nil
}

// Materialize writes tree below dir. The tree's own name is not used; its
// contents land directly in dir.
func (s *CustodyService) Materialize(ctx context.Context, tree *FolderNode, dir string) error {
	if err := s.fsmgr.MkdirAll(dir); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, node := range tree.Documents {
		intake, ok := node.(*DocumentIntake)
		if !ok {
			return fmt.Errorf("materializing %q: document has no content: %w", node.NodeName(), ErrIntegrity)
		}
		target, err := safeJoin(dir, intake.Name)
		if err != nil {
			return err
		}
		if err := s.fsmgr.WriteFile(target, intake.Content); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}
	for _, child := range tree.Folders {
		target, err := safeJoin(dir, child.Name)
		if err != nil {
			return err
		}
		if err := s.Materialize(ctx, child, target); err != nil {
			return err
		}
	}
	return nil
}

// safeJoin joins a single path element onto dir, refusing names that would
// escape it.
func safeJoin(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("unsafe name %q: %w", name, ErrInvalidArgument)
	}
	return filepath.Join(dir, name), nil
}
