package migrations

import "embed"

// FS contains the submission ledger schema, valid for SQLite and PostgreSQL.
//
//go:embed *.sql
var FS embed.FS
