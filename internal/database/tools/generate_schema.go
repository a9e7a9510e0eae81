// Command generate_schema migrates an in-memory database and dumps the
// resulting DDL to the file sqlc reads as its schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"custody-go/internal/database"
	"custody-go/internal/database/migrations"
)

const schemaHeader = `-- Generated from internal/database/migrations/files/*.sql.
-- Do not edit. Regenerate with 'go generate ./internal/database'.

`

// Tables first so that sqlc sees every column before the indexes and
// triggers that reference it.
const ddlQuery = `
SELECT type, name, sql
FROM sqlite_master
WHERE sql IS NOT NULL
  AND name NOT LIKE 'sqlite_%'
  AND tbl_name != 'schema_migrations'
ORDER BY CASE type WHEN 'table' THEN 1 WHEN 'index' THEN 2 ELSE 3 END, name`

func main() {
	out := flag.String("o", "internal/database/sqlc/schema.sql", "schema output path")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
}

func run(out string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	ddl, counts, err := dumpDDL(db)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(schemaHeader+ddl), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("wrote %s: %d tables, %d indexes, %d triggers\n",
		out, counts["table"], counts["index"], counts["trigger"])
	return nil
}

func dumpDDL(db *sql.DB) (string, map[string]int, error) {
	rows, err := db.Query(ddlQuery)
	if err != nil {
		return "", nil, fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	counts := make(map[string]int)
	for rows.Next() {
		var kind, name, stmt string
		if err := rows.Scan(&kind, &name, &stmt); err != nil {
			return "", nil, fmt.Errorf("scanning %s: %w", name, err)
		}
		counts[kind]++
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", nil, err
	}
	return b.String(), counts, nil
}
