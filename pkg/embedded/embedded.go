// Package embedded holds the prompt templates compiled into the binary.
package embedded

import "embed"

// Prompts contains one text/template file per prompt. File names match the
// keys used by the prompt loader.
//
//go:embed prompts/*.tmpl
var Prompts embed.FS
