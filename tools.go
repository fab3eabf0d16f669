//go:build tools
// +build tools

// Package celebguess pins code generators (mockgen) so `go generate` works on a
// fresh checkout without touching go.mod.
package celebguess

import (
	_ "go.uber.org/mock/mockgen"
)
