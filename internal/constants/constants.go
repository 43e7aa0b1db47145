// Package constants centralizes tool-wide naming.
package constants

const (
	// ToolName is the binary and product name
	ToolName = "winnow"

	// DefaultConfigFileName is the file `winnow init` writes
	DefaultConfigFileName = "winnow.yaml"

	// EnvVarPrefix namespaces environment variable overrides
	EnvVarPrefix = "WINNOW"

	// ManifestFileName is the package manifest consulted for entries,
	// scripts, and declared dependencies
	ManifestFileName = "package.json"
)
