// mjc lowers textual firm graphs to LLIR and prints the result.
//
// Usage:
//
//	mjc [--dump] [--optimize] [--verify] [-o out.llir] graphs.fir ...
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/lower"
)

func main() {
	var (
		dump     bool
		optimize bool
		verify   bool
		output   string
	)

	cmd := &cobra.Command{
		Use:          "mjc [flags] file.fir ...",
		Short:        "lower firm graphs to LLIR",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			for _, path := range args {
				if err := run(path, out, dump, optimize, verify); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "dump each firm graph before lowering")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "use the pattern-matching instruction selector")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify LLIR invariants after lowering")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write LLIR to a file instead of stdout")
	klog.InitFlags(nil)
	cmd.Flags().AddGoFlagSet(flag.CommandLine)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mjc: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, out io.Writer, dump, optimize, verify bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	program, err := firm.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	result := lower.Lower(program, lower.Options{
		Dump:     dump,
		Optimize: optimize,
		Logger:   klog.NewKlogr(),
	})

	for _, method := range program.Methods {
		if lerr, failed := result.Errors[method]; failed {
			return lerr
		}
		graph := result.Graphs[method]
		if verify {
			for _, verr := range graph.Verify() {
				return fmt.Errorf("%s: verify: %w", method.Name, verr)
			}
		}
		fmt.Fprintf(out, "%s:\n", method.Name)
		if _, err := graph.WriteTo(out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}
