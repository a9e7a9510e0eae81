package custody

import (
	"context"
	"fmt"
	"time"

	"custody-go/internal/database/sqlc"
)

// PermissionEntry is a grant resolved to the users involved.
type PermissionEntry struct {
	User      *sqlc.User
	Kind      PermissionKind
	GrantedBy *sqlc.User
	GrantedAt time.Time
}

// Grant gives user the kind of access to col on behalf of granter.
// The same kind granted by different granters are independent grants.
func (s *CustodyService) Grant(ctx context.Context, user *sqlc.User, col *sqlc.Collection, kind PermissionKind, granter *sqlc.User) error {
	if _, err := s.database.CreatePermission(ctx, col.ID, user.ID, kind, granter.ID); err != nil {
		return fmt.Errorf("granting %s on %s to %s: %w", kind, col.ID, user.Email, err)
	}
	return nil
}

// Revoke removes only the grant made by granter.
func (s *CustodyService) Revoke(ctx context.Context, user *sqlc.User, col *sqlc.Collection, kind PermissionKind, granter *sqlc.User) error {
	deleted, err := s.database.DeletePermission(ctx, col.ID, user.ID, kind, granter.ID)
	if err != nil {
		return fmt.Errorf("revoking %s on %s from %s: %w", kind, col.ID, user.Email, err)
	}
	if !deleted {
		return fmt.Errorf("%s grant on %s to %s by %s: %w", kind, col.ID, user.Email, granter.Email, ErrNotFound)
	}
	return nil
}

// CanRead reports whether user owns col or holds a read grant from anyone.
func (s *CustodyService) CanRead(ctx context.Context, col *sqlc.Collection, user *sqlc.User) (bool, error) {
	return s.can(ctx, col, user, PermissionRead)
}

func (s *CustodyService) CanWrite(ctx context.Context, col *sqlc.Collection, user *sqlc.User) (bool, error) {
	return s.can(ctx, col, user, PermissionWrite)
}

func (s *CustodyService) CanView(ctx context.Context, col *sqlc.Collection, user *sqlc.User) (bool, error) {
	return s.can(ctx, col, user, PermissionView)
}

func (s *CustodyService) can(ctx context.Context, col *sqlc.Collection, user *sqlc.User, kind PermissionKind) (bool, error) {
	if user == nil {
		return false, nil
	}
	if col.OwnerID == user.ID {
		return true, nil
	}
	return s.database.HasPermission(ctx, col.ID, user.ID, kind)
}

// authorize fails with ErrPermissionDenied unless actor holds one of kinds.
func (s *CustodyService) authorize(ctx context.Context, col *sqlc.Collection, actor *sqlc.User, kinds ...PermissionKind) error {
	for _, kind := range kinds {
		ok, err := s.can(ctx, col, actor, kind)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	who := "anonymous"
	if actor != nil {
		who = actor.Email
	}
	return fmt.Errorf("%s on collection %s: %w", who, col.ID, ErrPermissionDenied)
}

// AddPermission grants kind on the collection to the user with email,
// creating an anonymous user for unknown addresses.
func (s *CustodyService) AddPermission(ctx context.Context, actor *sqlc.User, collectionID, email string, kind PermissionKind) error {
	return s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionWrite); err != nil {
			return err
		}
		grantee, err := tx.CreateAnonymousUser(ctx, email)
		if err != nil {
			return err
		}
		if err := tx.Grant(ctx, grantee, col, kind, actor); err != nil {
			return err
		}
		s.logger.Info("permission granted", "collection", col.ID, "user", grantee.Email, "kind", kind, "by", actor.Email)
		return nil
	})
}

// RemovePermission revokes the grant of kind that actor made to email.
func (s *CustodyService) RemovePermission(ctx context.Context, actor *sqlc.User, collectionID, email string, kind PermissionKind) error {
	return s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionWrite); err != nil {
			return err
		}
		grantee, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := tx.Revoke(ctx, grantee, col, kind, actor); err != nil {
			return err
		}
		s.logger.Info("permission revoked", "collection", col.ID, "user", grantee.Email, "kind", kind, "by", actor.Email)
		return nil
	})
}

// ListPermissions returns every grant on the collection.
func (s *CustodyService) ListPermissions(ctx context.Context, actor *sqlc.User, collectionID string) ([]PermissionEntry, error) {
	col, err := s.liveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, col, actor, PermissionWrite); err != nil {
		return nil, err
	}
	perms, err := s.database.ListPermissions(ctx, col.ID)
	if err != nil {
		return nil, err
	}

	users := make(map[string]*sqlc.User)
	lookup := func(id string) (*sqlc.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		u, err := s.database.FindUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("permission on %s references user %s: %w", col.ID, id, ErrIntegrity)
		}
		users[id] = u
		return u, nil
	}

	entries := make([]PermissionEntry, 0, len(perms))
	for _, p := range perms {
		user, err := lookup(p.UserID)
		if err != nil {
			return nil, err
		}
		granter, err := lookup(p.GrantedBy)
		if err != nil {
			return nil, err
		}
		entries = append(entries, PermissionEntry{
			User:      user,
			Kind:      PermissionKind(p.Permission),
			GrantedBy: granter,
			GrantedAt: p.GrantedAt,
		})
	}
	return entries, nil
}
