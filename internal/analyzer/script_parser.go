package analyzer

import (
	"strings"

	"github.com/google/shlex"

	"github.com/winnowhq/winnow/internal/resolver"
)

// ScriptResult is what static inspection of one shell command line yields
type ScriptResult struct {
	// EntryFiles are script paths the command executes, as written
	EntryFiles []string

	// PackageRefs are package names the command depends on (runners,
	// preloaded loaders)
	PackageRefs []string
}

// runnerCommands execute a script file given as a positional argument. The
// value marks whether the command itself is a package dependency.
var runnerCommands = map[string]bool{
	"node":    false,
	"tsx":     true,
	"ts-node": true,
	"bun":     false,
	"deno":    false,
}

// preloadFlags name a module to load before the script runs; their argument
// is an implicit package reference
var preloadFlags = map[string]bool{
	"--import":              true,
	"--loader":              true,
	"--experimental-loader": true,
	"--require":             true,
	"-r":                    true,
}

// scriptExts are extensions that mark a positional argument as an entry file
var scriptExts = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".mjs": true, ".cjs": true, ".mts": true, ".cts": true,
}

// ParseScript statically inspects a shell command line for script entry
// files and package references. Nothing is executed; shell syntax beyond
// tokenization and command chaining is not interpreted.
func ParseScript(command string) ScriptResult {
	var result ScriptResult

	tokens, err := shlex.Split(command)
	if err != nil {
		// Unbalanced quotes and similar; skip rather than guess
		return result
	}

	for _, segment := range splitChain(tokens) {
		parseSegment(segment, &result)
	}
	return result
}

// splitChain splits a token stream on shell chaining operators
func splitChain(tokens []string) [][]string {
	var segments [][]string
	var current []string

	for _, token := range tokens {
		switch token {
		case "&&", "||", ";", "|":
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
		default:
			current = append(current, token)
		}
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// parseSegment inspects one command of a chain
func parseSegment(tokens []string, result *ScriptResult) {
	if len(tokens) == 0 {
		return
	}

	// Leading VAR=value assignments
	start := 0
	for start < len(tokens) && strings.Contains(tokens[start], "=") && !strings.HasPrefix(tokens[start], "-") {
		start++
	}
	if start >= len(tokens) {
		return
	}

	command := baseCommand(tokens[start])
	rest := tokens[start+1:]

	switch {
	case command == "npx" || command == "pnpx":
		parseNpx(rest, result)

	case command == "npm" || command == "yarn" || command == "pnpm":
		// Package-manager invocations reference scripts by name, not path

	default:
		isRunner, known := runnerCommands[command]
		if !known {
			return
		}
		if isRunner {
			addUnique(&result.PackageRefs, command)
		}
		parseRunnerArgs(rest, result)
	}
}

// parseRunnerArgs handles node-style argument lists
func parseRunnerArgs(tokens []string, result *ScriptResult) {
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		flag, value, hasInline := strings.Cut(token, "=")
		if preloadFlags[flag] {
			if !hasInline {
				if i+1 >= len(tokens) {
					return
				}
				i++
				value = tokens[i]
			}
			addPreload(value, result)
			continue
		}

		if strings.HasPrefix(token, "-") {
			continue
		}

		if isScriptPath(token) {
			addUnique(&result.EntryFiles, token)
			// Everything after the script is its argv
			return
		}
	}
}

// parseNpx handles npx invocations: the executed package is a reference
func parseNpx(tokens []string, result *ScriptResult) {
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if token == "-y" || token == "--yes" || token == "--no-install" || token == "-q" || token == "--quiet" {
			continue
		}
		if token == "-p" || token == "--package" {
			if i+1 < len(tokens) {
				i++
				addUnique(&result.PackageRefs, resolver.PackageNameOf(tokens[i]))
			}
			continue
		}
		if strings.HasPrefix(token, "-") {
			continue
		}
		addUnique(&result.PackageRefs, resolver.PackageNameOf(token))
		return
	}
}

// addPreload records a preloaded module: package specifiers become package
// references, path specifiers become entry files
func addPreload(value string, result *ScriptResult) {
	if value == "" {
		return
	}
	if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") || strings.HasPrefix(value, "/") {
		if isScriptPath(value) {
			addUnique(&result.EntryFiles, value)
		}
		return
	}
	addUnique(&result.PackageRefs, resolver.PackageNameOf(value))
}

// baseCommand strips any path prefix from a command token
func baseCommand(token string) string {
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}

func isScriptPath(token string) bool {
	if idx := strings.LastIndex(token, "."); idx >= 0 {
		return scriptExts[strings.ToLower(token[idx:])]
	}
	return false
}

func addUnique(list *[]string, value string) {
	if value == "" {
		return
	}
	for _, v := range *list {
		if v == value {
			return
		}
	}
	*list = append(*list, value)
}
