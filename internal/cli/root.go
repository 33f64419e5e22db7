package cli

import (
	"slices"

	"github.com/spf13/cobra"
)

// Options holds the validator's flags.
type Options struct {
	Format string // "json" | "text"
	Strict bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the content validator command.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "validate [--format text|json] [--strict] <file>...",
		Short: "Validate life-skills content files",
		Long: `Validate JSON or YAML content files the way the engine loads them.

Each file is decoded strictly (unknown fields are errors) and every story is
checked: entry scene present, scene ids unique, every next_scene resolves,
every scene reachable and every impacted meter declared. Warnings flag content
that loads but is probably wrong; --strict turns them into failures.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, "invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")

	return cmd
}
