// Package editscript loads, validates, and applies YAML/JSON edit scripts
// against a text engine.
package editscript

import "embed"

// SchemaFS contains the embedded edit-script JSON schema.
//
//go:embed schema.json
var SchemaFS embed.FS
