package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path for the disassembly
	Cache  string // sqlite program-cache path
}

// CompiledProgram is the JSON payload describing one compiled unit.
type CompiledProgram struct {
	Hash       string `json:"hash"`
	Token      string `json:"token"`
	Canonical  string `json:"canonical"`
	OnError    string `json:"on_error"`
	ResultType string `json:"result_type"`
	Disasm     string `json:"disasm"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <fixture.yaml>",
		Short: "Compile an expression fixture and print its program",
		Long: `Compile a typed expression fixture into an executable program.

The fixture is validated against the embedded schema, compiled under its
declared error policy, and the resulting program is printed as a stable
disassembly listing together with its content hash and result type.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the disassembly to a file")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "cache the compiled program in a sqlite database")

	return cmd
}

func runCompile(opts *CompileOptions, fixturePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	unit, err := loadAndCompile(formatter, fixturePath)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(unit.Disasm()), 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWrite, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if opts.Cache != "" {
		if err := cacheProgram(opts.Cache, unit, cmd); err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("caching program: %v", err))
		}
		formatter.VerboseLog("Cached program %s in %s", unit.Hash, opts.Cache)
	}

	payload := describeUnit(unit)
	if formatter.Format == "json" {
		return formatter.Success(payload)
	}

	fmt.Fprintf(formatter.Writer, "hash      %s\n", payload.Hash)
	fmt.Fprintf(formatter.Writer, "canonical %s\n", payload.Canonical)
	fmt.Fprintf(formatter.Writer, "policy    %s\n", payload.OnError)
	fmt.Fprintf(formatter.Writer, "type      %s\n", payload.ResultType)
	fmt.Fprintln(formatter.Writer)
	fmt.Fprint(formatter.Writer, payload.Disasm)
	return nil
}

// loadAndCompile is the shared front half of compile and eval: load the
// fixture, compile it, and report failures with their error codes.
func loadAndCompile(formatter *OutputFormatter, fixturePath string) (*compiler.Unit, error) {
	fixture, err := LoadFixture(fixturePath)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return nil, outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	formatter.VerboseLog("Compiling %s under %s policy", fixturePath, encodePolicy(fixture.Policy))

	unit, err := compiler.Compile(fixture.Expr, fixture.Policy)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeCompile, err.Error())
	}
	return unit, nil
}

func cacheProgram(path string, unit *compiler.Unit, cmd *cobra.Command) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.PutProgram(cmd.Context(), unit)
}

func describeUnit(unit *compiler.Unit) CompiledProgram {
	return CompiledProgram{
		Hash:       unit.Hash,
		Token:      unit.Token.String(),
		Canonical:  unit.Canonical,
		OnError:    encodePolicy(unit.OnError),
		ResultType: unit.ResultType.String(),
		Disasm:     unit.Disasm(),
	}
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
