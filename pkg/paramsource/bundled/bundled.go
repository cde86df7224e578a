// Package bundled holds the scoring parameter files compiled into the binary.
// It always carries the five representative conditions the resolver falls
// back to.
package bundled

import "embed"

// Dir is the directory inside FS holding the parameter files.
const Dir = "ionstat"

// FS is the embedded parameter bundle.
//
//go:embed ionstat/*.param
var FS embed.FS
