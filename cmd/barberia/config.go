package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mark3labs/barberia/internal/config"
	"github.com/mark3labs/barberia/internal/tui/theme"
	"github.com/spf13/cobra"
)

var configFlags struct {
	plain bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration barberia would run with after merging defaults,
config files, environment variables and flags. The output is valid YAML and can
be saved as a config file.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configFlags.plain, "plain", false, "Disable syntax highlighting")
}

func runConfig(cmd *cobra.Command, args []string) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	text := string(data)
	if !configFlags.plain {
		text = highlightYAML(text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
	return nil
}

// highlightYAML colors source for a true color terminal. Any failure returns
// source unchanged.
func highlightYAML(source string) string {
	lexer := lexers.Get("yaml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		return source
	}

	base := styles.Get("catppuccin-mocha")
	if base == nil {
		base = styles.Fallback
	}
	// Match the terminal background instead of the style's own.
	bg := chroma.MustParseColour(theme.Current().BgBase)
	style, err := base.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
		entry.Background = bg
		return entry
	}).Build()
	if err != nil {
		style = base
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return buf.String()
}
