package config

// ProjectType identifies a project flavor selectable in the init wizard
type ProjectType string

const (
	ProjectTypeGeneric ProjectType = "generic"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypeReact   ProjectType = "react"
	ProjectTypeVue     ProjectType = "vue"
	ProjectTypeMonorepo ProjectType = "monorepo"
)

// ProjectTypes lists the wizard choices in display order
func ProjectTypes() []ProjectType {
	return []ProjectType{
		ProjectTypeGeneric,
		ProjectTypeNode,
		ProjectTypeReact,
		ProjectTypeVue,
		ProjectTypeMonorepo,
	}
}

// Description returns a one-line summary shown next to the choice
func (p ProjectType) Description() string {
	switch p {
	case ProjectTypeNode:
		return "Node service or CLI (src/ layout, build scripts)"
	case ProjectTypeReact:
		return "React application (JSX/TSX, bundler entry)"
	case ProjectTypeVue:
		return "Vue application (single-file components)"
	case ProjectTypeMonorepo:
		return "Workspace monorepo (per-package entries)"
	default:
		return "Plain JavaScript or TypeScript project"
	}
}

// TemplateFor returns a starting configuration for a project type. The
// wizard tweaks the result before saving it.
func TemplateFor(projectType ProjectType) *Config {
	cfg := DefaultConfig()

	switch projectType {
	case ProjectTypeNode:
		cfg.Entry = []string{
			"index." + sourceExtGroup,
			"src/index." + sourceExtGroup,
			"src/cli." + sourceExtGroup,
			"bin/*." + sourceExtGroup,
			"scripts/*." + sourceExtGroup,
		}
		cfg.Project = []string{"src/**/*." + sourceExtGroup, "scripts/**/*." + sourceExtGroup}
	case ProjectTypeReact:
		cfg.Entry = []string{
			"src/index.{js,jsx,ts,tsx}",
			"src/main.{js,jsx,ts,tsx}",
		}
		cfg.Project = []string{"src/**/*.{js,jsx,ts,tsx,mdx}"}
		cfg.Ignore = append(cfg.Ignore, "**/*.stories.{js,jsx,ts,tsx}")
	case ProjectTypeVue:
		cfg.Entry = []string{"src/main.{js,ts}"}
		cfg.Project = []string{"src/**/*.{js,ts,vue}"}
	case ProjectTypeMonorepo:
		cfg.Entry = []string{
			"packages/*/src/index." + sourceExtGroup,
			"apps/*/src/index." + sourceExtGroup,
		}
		cfg.Project = []string{
			"packages/*/src/**/*." + sourceExtGroup,
			"apps/*/src/**/*." + sourceExtGroup,
		}
		cfg.IsolateWorkspaces = false
	}

	return cfg
}
