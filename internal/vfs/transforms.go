package vfs

import (
	"bytes"
	"regexp"
	"strings"
)

var scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// ExtractScriptBlocks pulls the contents of every <script> block out of a
// single-file component, preserving relative order. Markup outside script
// blocks is dropped; only the module surface matters here.
func ExtractScriptBlocks(_ string, content []byte) ([]byte, error) {
	matches := scriptBlockRe.FindAllSubmatch(content, -1)
	if len(matches) == 0 {
		return []byte{}, nil
	}

	var out bytes.Buffer
	for _, m := range matches {
		out.Write(m[1])
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// ExtractFrontmatter returns the code fence at the top of an Astro-style
// component (between --- markers), plus any script blocks in the body.
func ExtractFrontmatter(path string, content []byte) ([]byte, error) {
	var out bytes.Buffer

	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("---")) {
		rest := trimmed[3:]
		if end := bytes.Index(rest, []byte("---")); end >= 0 {
			out.Write(rest[:end])
			out.WriteByte('\n')
		}
	}

	body, err := ExtractScriptBlocks(path, content)
	if err != nil {
		return nil, err
	}
	out.Write(body)
	return out.Bytes(), nil
}

// ExtractModuleLines keeps only top-level import/export statements, used
// for markdown dialects that allow module syntax between prose.
func ExtractModuleLines(_ string, content []byte) ([]byte, error) {
	var out bytes.Buffer
	for _, line := range strings.Split(string(content), "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "import ") || strings.HasPrefix(stripped, "export ") {
			out.WriteString(stripped)
			out.WriteByte('\n')
		}
	}
	return out.Bytes(), nil
}

// DefaultRegistrations covers the common component formats. Single-file
// components transform synchronously; markdown dialects run in the async
// compile pass.
func DefaultRegistrations() []Registration {
	return []Registration{
		{Ext: ".vue", TargetExt: ".ts", Transform: ExtractScriptBlocks},
		{Ext: ".svelte", TargetExt: ".ts", Transform: ExtractScriptBlocks},
		{Ext: ".astro", TargetExt: ".ts", Async: true, Transform: ExtractFrontmatter},
		{Ext: ".mdx", TargetExt: ".js", Async: true, Transform: ExtractModuleLines},
	}
}
