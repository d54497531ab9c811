// Command pjs is the reference host SPEC_FULL.md §10.5 describes: a small
// cobra/pflag CLI that compiles, links and executes one PJS source file,
// resolving its imports against sibling `.pjs` files on disk. It exists to
// exercise the engine end-to-end, not as a production tool (spec.md §6:
// "no CLI in the core... a host CLI may exist atop the engine"). Grounded
// on cuelang.org/go/cmd/cue/cmd's root-command wiring
// (cmd/cue/cmd/root.go), simplified to this engine's single-command shape.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flomesh-io/pjs"
	"github.com/flomesh-io/pjs/module"
	"github.com/flomesh-io/pjs/value"
)

// fiberAssignments implements pflag.Value directly (rather than going
// through one of cobra's StringArrayVar-style helpers) so repeated
// `--fiber name=value` flags accumulate into name/value pairs the runtime
// seeds as fiber variables (spec.md §3) before Execute runs.
type fiberAssignments struct {
	pairs [][2]string
}

var _ pflag.Value = (*fiberAssignments)(nil)

func (f *fiberAssignments) String() string {
	parts := make([]string, len(f.pairs))
	for i, p := range f.pairs {
		parts[i] = p[0] + "=" + p[1]
	}
	return strings.Join(parts, ",")
}

func (f *fiberAssignments) Set(s string) error {
	name, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("--fiber expects name=value, got %q", s)
	}
	f.pairs = append(f.pairs, [2]string{name, val})
	return nil
}

func (f *fiberAssignments) Type() string { return "name=value" }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		trace    bool
		maxDepth int
		root     string
		fibers   fiberAssignments
	)
	cmd := &cobra.Command{
		Use:   "pjs <file>",
		Short: "run a PJS script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], root, maxDepth, trace, fibers.pairs)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "enable debug-level engine logging")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum call stack depth (0 = unbounded)")
	cmd.Flags().StringVar(&root, "root", "", "directory sibling .pjs imports resolve against (default: the entry file's directory)")
	cmd.Flags().VarP(&fibers, "fiber", "D", "seed a \"$\"-prefixed fiber variable as name=value (repeatable)")
	return cmd
}

func run(cmd *cobra.Command, path string, root string, maxDepth int, trace bool, fibers [][2]string) error {
	if root == "" {
		root = filepath.Dir(path)
	}

	opts := []pjs.Option{
		pjs.WithMaxCallDepth(maxDepth),
		pjs.WithModuleResolver(diskResolver(root)),
	}
	if trace {
		opts = append(opts, pjs.WithDebugLogging())
	}
	rt := pjs.New(opts...)

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := rt.Compile(path, src)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), rt.Details())
		return err
	}
	for _, p := range fibers {
		if !rt.SetFiber(m, p[0], value.StrValue(rt.Pool.Intern(p[1]))) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q declares no fiber variable %q\n", path, p[0])
		}
	}
	result, err := rt.Execute(m)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), rt.Details())
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rt.Inspect(result))
	return nil
}

// diskResolver implements module.Resolver by reading "<root>/<path>.pjs"
// (spec.md §6's Module resolver: "(importer_module, path_string) ->
// module_or_null"), compiling it against importer's owning Instance so the
// resolved Module joins the same module table.
func diskResolver(root string) module.Resolver {
	return func(importer *module.Module, path string) (*module.Module, error) {
		file := filepath.Join(root, path+".pjs")
		src, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		return importer.Instance.Compile(file, src)
	}
}
