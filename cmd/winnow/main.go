package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winnowhq/winnow/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "winnow",
		Short: "winnow - unused code finder for JavaScript/TypeScript projects",
		Long: `winnow builds a module graph from your project's entry points and reports
what never gets reached: unused files, unused exports, unresolved imports,
and dependency drift against package.json.`,
		Version: version.Version,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*ScanExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Findings already printed; only the exit code is left
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Println(version.GetFullVersion())
			} else {
				fmt.Printf("winnow version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
