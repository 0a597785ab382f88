package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/npocrawl/internal/config"
)

//go:embed templates/npocrawl.yaml
var configTemplate embed.FS

const configTemplatePath = "templates/npocrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new npocrawl configuration file",
		Long: `Initialize creates a new .npocrawl configuration file in the current directory.

The generated file documents every setting with its default value:
- Countries crawled when none are given on the command line
- URL layout of the directory site
- CSS selectors for city links, detail links, pagination and record fields
- Request headers, cookie and User-Agent

Examples:
  # Create .npocrawl in current directory
  npocrawl init

  # Create config file at a specific path
  npocrawl init -o myconfig.yaml

  # Force overwrite existing file
  npocrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold a session cookie.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adapt npocrawl to a directory site:")
	fmt.Fprintln(out, "  - URL layout and CSS selectors")
	fmt.Fprintln(out, "  - Request headers and cookie")

	return nil
}
