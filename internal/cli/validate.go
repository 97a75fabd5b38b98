package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/emtab/internal/canon"
	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool
}

// ValidateSummary is the success payload of the validate command.
type ValidateSummary struct {
	Model    string `json:"model"`
	Tables   int    `json:"tables"`
	Warnings int    `json:"warnings"`
}

func (s ValidateSummary) String() string {
	msg := fmt.Sprintf("valid: %s, %d table(s)", s.Model, s.Tables)
	if s.Warnings > 0 {
		msg += fmt.Sprintf(", %d warning(s)", s.Warnings)
	}
	return msg
}

// NewValidateCommand creates the validate command. It checks an already
// compiled IR document against the table-shape rules without recompiling,
// so externally produced or hand-edited tables can be gated the same way.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "validate <tables.json>",
		Short:         "Check a compiled table document against the shape rules",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat incomplete year coverage as an error")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeLoad, err.Error(), nil)
	}

	doc, err := ir.UnmarshalCanonical(data)
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeLoad,
			fmt.Sprintf("decode %s: %v", path, err), nil)
	}
	formatter.VerboseLog("decoded %q: %d tables", doc.Model, len(doc.Tables))

	diags := canon.Validate(doc, canon.Options{Strict: opts.Strict})
	if diag.HasFatal(diags) {
		return formatter.Failure(ExitFailure, ErrCodeValidate,
			fmt.Sprintf("%q violates the canonical form", doc.Model), diags)
	}

	summary := ValidateSummary{Model: doc.Model, Tables: len(doc.Tables)}
	for _, d := range diags {
		if d.Severity == diag.SeverityWarning {
			summary.Warnings++
		}
	}
	return formatter.Success(summary, diags)
}
