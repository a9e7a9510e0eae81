package custody

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing entities and soft-deleted ones alike.
	ErrNotFound = errors.New("not found")

	// ErrNoMatches is returned by searches that found nothing.
	ErrNoMatches = fmt.Errorf("no matching documents: %w", ErrNotFound)

	ErrPermissionDenied = errors.New("permission denied")

	ErrConflict       = errors.New("conflict")
	ErrAlreadyUpdated = fmt.Errorf("document already updated: %w", ErrConflict)
	ErrInvalidName    = fmt.Errorf("invalid name: %w", ErrConflict)
	ErrAlreadyGranted = fmt.Errorf("permission already granted: %w", ErrConflict)
	ErrUserExists     = fmt.Errorf("user already exists: %w", ErrConflict)

	// ErrIntegrity means persisted state broke an invariant, such as an
	// entity without a create event or an update pointing at a missing row.
	ErrIntegrity = errors.New("integrity violation")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidArchive  = fmt.Errorf("invalid archive: %w", ErrInvalidArgument)

	ErrAuthentication    = errors.New("authentication failed")
	ErrManifestRejected  = errors.New("manifest rejected")
	ErrDuplicateDocument = errors.New("duplicate document")
)
