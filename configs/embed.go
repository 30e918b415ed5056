// Package configs embeds the configuration template written by
// `symdex init`.
//
// The template lists every key of internal/config.Config with its
// default, so a freshly generated .symdex.yaml loads to the same values
// as no file at all. Edit project-config.example.yaml and rebuild to
// change it.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .symdex.yaml by `symdex init`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
