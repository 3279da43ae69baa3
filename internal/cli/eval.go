package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/internal/codegen"
	"github.com/quarrydb/quarry/internal/compiler"
	"github.com/quarrydb/quarry/internal/sqltype"
	"github.com/quarrydb/quarry/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Cache string // sqlite cache path for the program and its result
}

// EvalResult is the JSON payload describing one evaluation.
type EvalResult struct {
	Hash       string   `json:"hash"`
	ResultType string   `json:"result_type"`
	Null       bool     `json:"null"`
	Value      string   `json:"value"`
	Params     []string `json:"params,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <fixture.yaml>",
		Short: "Compile and run an expression fixture",
		Long: `Compile a typed expression fixture and execute the resulting program
against the parameter bindings declared in the fixture.

Runtime faults (arithmetic overflow, division by zero) are part of the
compiled program's semantics under the raise policy; they are reported
with their fault code and exit code 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "cache the program and its result in a sqlite database")

	return cmd
}

func runEval(opts *EvalOptions, fixturePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	fixture, err := LoadFixture(fixturePath)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	formatter.VerboseLog("Compiling %s under %s policy", fixturePath, encodePolicy(fixture.Policy))

	unit, err := compiler.Compile(fixture.Expr, fixture.Policy)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCompile, err.Error())
	}

	out, err := unit.Run(fixture.Params...)
	if err != nil {
		var fault *codegen.FaultError
		if errors.As(err, &fault) {
			_ = formatter.Error(string(fault.Code), fault.Error(), nil)
			return WrapExitError(ExitFailure, fault.Error(), nil)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Cache != "" {
		if err := cacheResult(opts.Cache, unit, out, cmd); err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Sprintf("caching result: %v", err))
		}
		formatter.VerboseLog("Cached result for %s in %s", unit.Hash, opts.Cache)
	}

	payload := EvalResult{
		Hash:       unit.Hash,
		ResultType: unit.ResultType.String(),
		Null:       out.Null,
		Value:      out.String(),
	}
	for _, p := range fixture.Params {
		payload.Params = append(payload.Params, p.String())
	}

	if formatter.Format == "json" {
		return formatter.Success(payload)
	}

	fmt.Fprintf(formatter.Writer, "%s = %s\n", payload.ResultType, payload.Value)
	return nil
}

// cacheResult persists the program and one materialized result row.
func cacheResult(path string, unit *compiler.Unit, out codegen.Scalar, cmd *cobra.Command) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutProgram(cmd.Context(), unit); err != nil {
		return err
	}
	_, err = st.AppendResult(cmd.Context(), unit.Hash, unit.ResultType, out)
	return err
}

// encodePolicy renders the policy the way the store and fixtures spell it.
func encodePolicy(p sqltype.OnError) string {
	if p == sqltype.ReturnNull {
		return "null"
	}
	return "raise"
}
