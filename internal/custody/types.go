package custody

import (
	"fmt"
	"strings"
)

// EventType is the kind of an audit event.
type EventType string

const (
	EventCreate EventType = "create"
	EventAccess EventType = "access"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// PermissionKind is a grantable capability on a collection.
type PermissionKind string

const (
	PermissionRead  PermissionKind = "read"
	PermissionWrite PermissionKind = "write"
	PermissionView  PermissionKind = "view"
)

// ParsePermissionKind accepts "read", "write" or "view" in any case.
func ParsePermissionKind(s string) (PermissionKind, error) {
	switch k := PermissionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PermissionRead, PermissionWrite, PermissionView:
		return k, nil
	default:
		return "", fmt.Errorf("unknown permission %q: %w", s, ErrInvalidArgument)
	}
}

// ShareState is the sharing policy of a collection.
type ShareState string

const (
	SharePrivate    ShareState = "private"
	SharePublic     ShareState = "public"
	ShareEmbargoed  ShareState = "embargoed"
	ShareRestricted ShareState = "restricted"
)

// ParseShareState maps a share state name; empty means private.
func ParseShareState(s string) (ShareState, error) {
	switch st := ShareState(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return SharePrivate, nil
	case SharePrivate, SharePublic, ShareEmbargoed, ShareRestricted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown share state %q: %w", s, ErrInvalidArgument)
	}
}

// Role is a user's account role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)
