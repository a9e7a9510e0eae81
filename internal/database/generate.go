package database

// Code generation for the database package:
//
//   go generate ./internal/database
//
// regenerates sqlc/schema.sql from the migration files and then the sqlc
// query package from sqlc/queries/*.sql. Triggers are part of the schema.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
