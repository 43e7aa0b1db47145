package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/winnowhq/winnow/internal/config"
	"github.com/winnowhq/winnow/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a winnow configuration file",
		Long: `Generate a winnow configuration file with sensible defaults.

By default, creates winnow.yaml in the current directory. Use --interactive
for a guided setup wizard that tailors the globs to your project layout.

Examples:
  # Create winnow.yaml in the current directory
  winnow init

  # Custom output path (a .json extension writes JSON)
  winnow init --config .winnow.json

  # Overwrite an existing file
  winnow init --force

  # Interactive setup wizard
  winnow init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.DefaultConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	projectType := config.ProjectTypeGeneric
	if interactive {
		var err error
		projectType, configPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	if err := writeConfigFile(configPath, projectType); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'winnow scan .' to analyze your project.")

	return nil
}

// writeConfigFile writes the template for a project type, picking the
// encoding from the file extension
func writeConfigFile(path string, projectType config.ProjectType) error {
	if strings.EqualFold(filepath.Ext(path), ".json") && projectType == config.ProjectTypeGeneric {
		return os.WriteFile(path, config.DefaultConfigJSON(), 0o644)
	}
	return config.SaveConfig(config.TemplateFor(projectType), path)
}

func runInteractiveSetup(defaultConfigPath string) (config.ProjectType, string, error) {
	fmt.Println()
	fmt.Println("winnow Configuration Setup")
	fmt.Println("==========================")
	fmt.Println()

	type choice struct {
		Label       string
		Description string
		Value       config.ProjectType
	}

	var choices []choice
	for _, projectType := range config.ProjectTypes() {
		choices = append(choices, choice{
			Label:       string(projectType),
			Description: projectType.Description(),
			Value:       projectType,
		})
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "What type of project is this?",
		Items:     choices,
		Templates: templates,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("project selection cancelled: %w", err)
	}
	selected := choices[idx].Value

	fmt.Println()

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selected, outputPath, nil
}
