// Package appfs exposes the application's embedded assets:
// SQL migrations, email templates and the common-passwords list.
package appfs

import "embed"

//go:embed migrations all:templates assets
var FS embed.FS
