//go:build tools

package tools

// Tool dependencies pinned in go.mod: oapi-codegen checks internal/api against
// api/openapi.yaml, goose manages migrations outside the binary.
import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
	_ "github.com/pressly/goose/v3/cmd/goose"
)
