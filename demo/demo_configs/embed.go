package demo_configs

import (
	"embed"
)

// FS provides embedded demo lab settings and their corpus files.
//
//go:embed *.yaml *.txt
var FS embed.FS
