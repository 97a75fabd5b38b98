package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/emtab/internal/canon"
	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/lower"
	"github.com/mkarlsen/emtab/internal/model"
	"github.com/mkarlsen/emtab/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path for the compiled IR
	Store  string // run store database path
	Strict bool   // strict year-coverage mode
}

// CompileSummary is the success payload of the compile command.
type CompileSummary struct {
	Model  string `json:"model"`
	Tables int    `json:"tables"`
	Rows   int    `json:"rows"`
	RunID  string `json:"run_id,omitempty"`
	Output string `json:"output,omitempty"`
}

func (s CompileSummary) String() string {
	msg := fmt.Sprintf("compiled %s: %d table(s), %d row(s)", s.Model, s.Tables, s.Rows)
	if s.RunID != "" {
		msg += fmt.Sprintf(" (run %s)", s.RunID)
	}
	return msg
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <model.yaml>",
		Short: "Compile a model document to canonical tables",
		Long: `Compile a YAML model document into the canonical tabular form.

The compiler normalizes the entity model, resolves primary commodity groups,
densifies sparse time series, lowers every entity to rows, and checks the
result against the table-shape rules before writing it out. All problems
found in one run are reported together.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled tables to this file")
	cmd.Flags().StringVar(&opts.Store, "store", "", "record the run in this database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat incomplete year coverage as an error")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := LoadModel(path)
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeLoad, err.Error(), nil)
	}
	formatter.VerboseLog("loaded model %q: %d commodities, %d processes",
		m.Name, len(m.Commodities), len(m.Processes))

	compiled, diags := compileModel(m, opts.Strict)
	if compiled == nil {
		return formatter.Failure(ExitFailure, ErrCodeCompile,
			fmt.Sprintf("compilation of %q failed", m.Name), diags)
	}

	payload, err := ir.MarshalCanonical(compiled)
	if err != nil {
		return formatter.Failure(ExitFailure, ErrCodeCompile, err.Error(), diags)
	}

	summary := CompileSummary{Model: compiled.Model, Tables: len(compiled.Tables)}
	for _, t := range compiled.Tables {
		summary.Rows += len(t.Rows)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, payload, 0o644); err != nil {
			return formatter.Failure(ExitCommandError, ErrCodeWrite, err.Error(), diags)
		}
		summary.Output = opts.Output
	}

	if opts.Store != "" {
		runID, err := recordRun(opts.Store, compiled.Model, payload)
		if err != nil {
			return formatter.Failure(ExitCommandError, ErrCodeStore, err.Error(), diags)
		}
		summary.RunID = runID
	}

	return formatter.Success(summary, diags)
}

// compileModel runs the full pipeline over a loaded entity model. The
// returned IR is nil when any stage produced a fatal diagnostic; the
// diagnostics always carry everything found.
func compileModel(m *model.Model, strict bool) (*ir.IR, []diag.Diagnostic) {
	normalized, diags := model.Normalize(m)
	if diag.HasFatal(diags) {
		return nil, diags
	}

	compiled, lowerDiags := lower.Lower(normalized)
	diags = append(diags, lowerDiags...)
	if compiled == nil {
		return nil, diags
	}

	diags = append(diags, canon.Validate(compiled, canon.Options{Strict: strict})...)
	if diag.HasFatal(diags) {
		return nil, diags
	}
	return compiled, diags
}

func recordRun(path, modelName string, payload []byte) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.SaveRun(modelName, payload)
}
