// Package assets embeds files shipped inside the server binary.
package assets

import "embed"

// Migrations holds the versioned schema migrations applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
