package migrations

import "embed"

// Migrations holds the SQL migration files, compiled into the binary and
// served to golang-migrate through its iofs source driver.
//
//go:embed *.sql
var Migrations embed.FS
