package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/internal/sqltype"
)

// TypesOptions holds flags for the types command.
type TypesOptions struct {
	*RootOptions
}

// TypeInfo is the JSON payload describing one registered SQL type.
type TypeInfo struct {
	Name          string   `json:"name"`
	StoredWidth   int      `json:"stored_width"`
	VariableWidth bool     `json:"variable_width"`
	ImplicitCasts []string `json:"implicit_casts,omitempty"`
	Casts         []string `json:"casts,omitempty"`
	UnaryOps      []string `json:"unary_ops,omitempty"`
	BinaryOps     []string `json:"binary_ops,omitempty"`
	NaryOps       []string `json:"nary_ops,omitempty"`
	NoArgOps      []string `json:"no_arg_ops,omitempty"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TypesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "types [TYPE]",
		Short: "Dump the registered SQL types and their operator tables",
		Long: `List every registered SQL type with its storage layout and the
operators its registry carries: implicit widenings, explicit casts, and
the unary, binary, n-ary, and no-argument operator tables.

With a TYPE argument (e.g. INTEGER), only that type is shown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return runTypes(opts, filter, cmd)
		},
	}

	return cmd
}

func runTypes(opts *TypesOptions, filter string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	types := sqltype.All()
	if filter != "" {
		id := sqltype.TypeIDFromName(strings.ToUpper(filter))
		if id == sqltype.InvalidID {
			return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("unknown type %q", filter))
		}
		types = []sqltype.SqlType{sqltype.FromID(id)}
	}

	infos := make([]TypeInfo, len(types))
	for i, st := range types {
		infos[i] = describeType(st)
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		printTypeInfo(formatter, info)
	}
	return nil
}

func describeType(st sqltype.SqlType) TypeInfo {
	ts := st.TypeSystem()
	layout := st.Layout()

	info := TypeInfo{
		Name:          st.Name(),
		StoredWidth:   layout.ValWidth,
		VariableWidth: layout.HasLength,
	}

	for _, id := range ts.ImplicitCasts() {
		info.ImplicitCasts = append(info.ImplicitCasts, id.String())
	}
	for _, entry := range ts.Casts() {
		info.Casts = append(info.Casts, fmt.Sprintf("%s -> %s", entry.From, entry.To))
	}
	for _, entry := range ts.UnaryOperators() {
		info.UnaryOps = append(info.UnaryOps, entry.ID.String())
	}
	for _, entry := range ts.BinaryOperators() {
		info.BinaryOps = append(info.BinaryOps, entry.ID.String())
	}
	for _, entry := range ts.NaryOperators() {
		info.NaryOps = append(info.NaryOps, entry.ID.String())
	}
	for _, entry := range ts.NoArgOperators() {
		info.NoArgOps = append(info.NoArgOps, entry.ID.String())
	}
	return info
}

func printTypeInfo(formatter *OutputFormatter, info TypeInfo) {
	fmt.Fprintf(formatter.Writer, "%s\n", info.Name)
	if info.VariableWidth {
		fmt.Fprintf(formatter.Writer, "  storage: variable-length\n")
	} else {
		fmt.Fprintf(formatter.Writer, "  storage: %d byte(s)\n", info.StoredWidth)
	}
	printTable(formatter, "widens to", info.ImplicitCasts)
	printTable(formatter, "casts", info.Casts)
	printTable(formatter, "unary", info.UnaryOps)
	printTable(formatter, "binary", info.BinaryOps)
	printTable(formatter, "nary", info.NaryOps)
	printTable(formatter, "no-arg", info.NoArgOps)
}

func printTable(formatter *OutputFormatter, label string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(formatter.Writer, "  %-9s %s\n", label+":", strings.Join(entries, ", "))
}
