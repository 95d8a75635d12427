package main

import (
	"fmt"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/x/editor"
	"github.com/mark3labs/barberia/internal/config"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	project bool
	force   bool
	edit    bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create barberia configuration file",
	Long: `Create a barberia configuration file with the default catalog and timings.

By default, creates a global config at ~/.config/barberia/barberia.yml.
Use --project to create a project-local config in the current directory.
When --force replaces an existing file, the changes are printed as a diff.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().BoolVarP(&setupFlags.edit, "edit", "e", false, "Open the written file in $EDITOR")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	previous, readErr := os.ReadFile(targetPath)
	exists := readErr == nil
	if exists && !setupFlags.force {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	defaults := config.Default()
	if flags := cmd.Flags(); flags.Changed("calendar-url") {
		defaults.CalendarURL = rootFlags.calendarURL
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(defaults)
	} else {
		err = config.WriteGlobal(defaults)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	if exists {
		written, err := os.ReadFile(targetPath)
		if err != nil {
			return err
		}
		if diff := configDiff(targetPath, string(previous), string(written)); diff != "" {
			fmt.Fprintln(out, diff)
		}
	}
	fmt.Fprintf(out, "Config written to: %s\n", targetPath)

	if setupFlags.edit {
		c, err := editor.Command("barberia", targetPath)
		if err != nil {
			return fmt.Errorf("opening editor: %w", err)
		}
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("editor: %w", err)
		}
		return nil
	}

	fmt.Fprintln(out, "\nRun 'barberia book' to get started.")
	return nil
}

// configDiff returns a unified diff between two versions of the file at path,
// or "" when they are equal.
func configDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	return udiff.Unified(path+" (old)", path+" (new)", before, after)
}
