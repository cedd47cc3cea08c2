// Package assets embeds the files the binaries need at runtime.
package assets

import "embed"

//go:embed migrations/*.sql
var FS embed.FS
