// Package logocluster is the module root. It embeds the SQL migrations so the
// binary can apply them without shipping the directory.
package logocluster

import "embed"

// Migrations holds the goose migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
