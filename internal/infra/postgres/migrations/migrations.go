// Package migrations holds the embedded SQL migrations for the
// Postgres schema. Each migration registers itself in an init so the
// bun migrator picks them up in filename order.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
