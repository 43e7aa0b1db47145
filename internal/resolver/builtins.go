package resolver

import "strings"

// Node.js built-in modules list (node: prefix or bare)
var nodeBuiltins = map[string]bool{
	"assert":          true,
	"async_hooks":     true,
	"buffer":          true,
	"child_process":   true,
	"cluster":         true,
	"console":         true,
	"constants":       true,
	"crypto":          true,
	"dgram":           true,
	"diagnostics_channel": true,
	"dns":             true,
	"domain":          true,
	"events":          true,
	"fs":              true,
	"http":            true,
	"http2":           true,
	"https":           true,
	"inspector":       true,
	"module":          true,
	"net":             true,
	"os":              true,
	"path":            true,
	"perf_hooks":      true,
	"process":         true,
	"punycode":        true,
	"querystring":     true,
	"readline":        true,
	"repl":            true,
	"stream":          true,
	"string_decoder":  true,
	"sys":             true,
	"timers":          true,
	"tls":             true,
	"trace_events":    true,
	"tty":             true,
	"url":             true,
	"util":            true,
	"v8":              true,
	"vm":              true,
	"wasi":            true,
	"worker_threads":  true,
	"zlib":            true,
}

// IsBuiltin reports whether the specifier names a Node.js builtin module.
// The node: prefix is always a builtin, even for names not in the list.
func IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	name := specifier
	if idx := strings.Index(name, "/"); idx > 0 {
		name = name[:idx]
	}
	return nodeBuiltins[name]
}
