package analyzer

import (
	"reflect"
	"testing"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name    string
		command string
		entries []string
		pkgs    []string
	}{
		{
			name:    "plain node",
			command: "node dist/server.js",
			entries: []string{"dist/server.js"},
		},
		{
			name:    "loader flag names a package",
			command: "node --import tsx/esm run.ts",
			entries: []string{"run.ts"},
			pkgs:    []string{"tsx"},
		},
		{
			name:    "require flag with separate value",
			command: "node -r dotenv/config src/index.js",
			entries: []string{"src/index.js"},
			pkgs:    []string{"dotenv"},
		},
		{
			name:    "require flag with inline value",
			command: "node --require=ts-node/register server.ts",
			entries: []string{"server.ts"},
			pkgs:    []string{"ts-node"},
		},
		{
			name:    "preloaded local file",
			command: "node --require ./register.js main.js",
			entries: []string{"./register.js", "main.js"},
		},
		{
			name:    "tsx is itself a dependency",
			command: "tsx watch src/main.ts",
			entries: []string{"src/main.ts"},
			pkgs:    []string{"tsx"},
		},
		{
			name:    "npx references the executed package",
			command: "npx -y eslint .",
			pkgs:    []string{"eslint"},
		},
		{
			name:    "npx with scoped package",
			command: "npx @biomejs/biome check src",
			pkgs:    []string{"@biomejs/biome"},
		},
		{
			name:    "chained commands",
			command: "node scripts/clean.js && node scripts/build.js",
			entries: []string{"scripts/clean.js", "scripts/build.js"},
		},
		{
			name:    "environment prefix",
			command: "NODE_ENV=production node server.js",
			entries: []string{"server.js"},
		},
		{
			name:    "script args are not entries",
			command: "node tools/gen.js --out dist/schema.ts",
			entries: []string{"tools/gen.js"},
		},
		{
			name:    "package manager script names ignored",
			command: "npm run build",
		},
		{
			name:    "unknown command ignored",
			command: "docker compose up -d",
		},
		{
			name:    "unbalanced quotes skipped",
			command: `node "broken.js`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseScript(tt.command)
			if !reflect.DeepEqual(result.EntryFiles, tt.entries) {
				t.Errorf("EntryFiles = %v, want %v", result.EntryFiles, tt.entries)
			}
			if !reflect.DeepEqual(result.PackageRefs, tt.pkgs) {
				t.Errorf("PackageRefs = %v, want %v", result.PackageRefs, tt.pkgs)
			}
		})
	}
}
