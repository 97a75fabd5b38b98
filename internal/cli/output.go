package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mkarlsen/emtab/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // compilation/validation failure (fatal diagnostics)
	ExitCommandError = 2 // command error (bad paths, unreadable files, etc.)
)

// CLI error codes (E001-E009), distinct from the diagnostic codes the
// pipeline itself emits.
const (
	ErrCodeLoad     = "E001" // source document unreadable or undecodable
	ErrCodeCompile  = "E002" // fatal diagnostics during normalize/lower
	ErrCodeValidate = "E003" // fatal diagnostics from the table-shape rules
	ErrCodeWrite    = "E004" // output file write failed
	ErrCodeStore    = "E005" // run store unavailable
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose/diagnostic output; keeps JSON output clean
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status      string            `json:"status"` // "ok" or "error"
	Data        any               `json:"data,omitempty"`
	Error       *CLIError         `json:"error,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result in the configured format, with any
// non-fatal diagnostics attached.
func (f *OutputFormatter) Success(data any, diags []diag.Diagnostic) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:      "ok",
			Data:        data,
			Diagnostics: diags,
		})
	}

	fmt.Fprintln(f.Writer, data)
	f.printDiagnostics(diags)
	return nil
}

// Failure outputs an error with its diagnostics in the configured format and
// returns an ExitError carrying the given exit code.
func (f *OutputFormatter) Failure(exitCode int, code, message string, diags []diag.Diagnostic) error {
	if f.Format == "json" {
		if err := json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:      "error",
			Error:       &CLIError{Code: code, Message: message},
			Diagnostics: diags,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		f.printDiagnostics(diags)
	}
	return &ExitError{Code: exitCode, Message: message}
}

func (f *OutputFormatter) printDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(f.Writer, "  %s\n", d.Error())
	}
}

// VerboseLog outputs a message only if verbose mode is enabled. Goes to
// ErrWriter so verbose logs never corrupt JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
