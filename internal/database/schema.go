package database

import _ "embed"

// Schema is the full schema produced by applying every migration, used to
// set up throwaway databases in tests.
//
//go:embed sqlc/schema.sql
var Schema string
