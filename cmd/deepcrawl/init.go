package main

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/deepcrawl/internal/config"
)

//go:embed templates/deepcrawl.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new research file",
		Long: `Initialize creates a research file in the current directory.

The generated file includes:
- Documentation for every topic and category field
- Shared defaults for the evidence policy
- The built-in research topics, ready to edit

Examples:
  # Create .deepcrawl.yaml in the current directory
  deepcrawl init

  # Create the research file at a specific path
  deepcrawl init -o research.yaml

  # Force overwrite an existing file
  deepcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the research file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing research file")

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
			return fmt.Errorf("research file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := researchTemplate()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	// The file may later hold session cookies.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write research file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created research file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to define your own research topics:")
	fmt.Fprintln(out, "  - Seed URLs and URL patterns to follow")
	fmt.Fprintln(out, "  - Evidence categories and their indicator terms")
	fmt.Fprintln(out, "  - Cookies and headers for sites that need them")
	return nil
}

// researchTemplate renders the documented header followed by the presets.
func researchTemplate() ([]byte, error) {
	header, err := configTemplate.ReadFile("templates/deepcrawl.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read research template: %w", err)
	}

	topics := struct {
		Topics []config.Topic `yaml:"topics"`
	}{Topics: config.Presets()}

	var buf bytes.Buffer
	buf.Write(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(topics); err != nil {
		return nil, fmt.Errorf("failed to render research template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render research template: %w", err)
	}
	return buf.Bytes(), nil
}
