package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/strager/whilejvm/codegen"
	"github.com/strager/whilejvm/config"
	"github.com/strager/whilejvm/interp"
	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/logging"
	"github.com/strager/whilejvm/value"
	"github.com/strager/whilejvm/vm"
)

// ProgramName derives the class name from a source path by dropping the
// directory and the extension.
func ProgramName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// unit is a loaded source file together with the settings that apply to it.
type unit struct {
	cfg  *config.Config
	path string
	prog *lang.Program
}

func load(configPath, path string) (*unit, error) {
	cfg, err := config.Load(configPath, configPath == config.FileName)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	prog, err := lang.Parse(string(src), lang.DecodeOptions{EntryPoint: cfg.EntryPoint})
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	logging.V(5).Infof("loaded %s: %d declarations", path, len(prog.Decls))
	if logging.V(9) {
		logging.Infof("AST of %s:\n%s", path, spew.Sdump(prog))
	}
	return &unit{cfg: cfg, path: path, prog: prog}, nil
}

func (u *unit) compile() (*jvm.Program, error) {
	return codegen.Compile(u.prog, codegen.Options{
		Name:    ProgramName(u.path),
		Version: u.cfg.Version(),
		Verify:  u.cfg.ShouldVerify(),
	})
}

func newBuildCmd(configPath *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Compile a program and print its listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := load(*configPath, args[0])
			if err != nil {
				return err
			}
			class, err := u.compile()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				_, err = io.WriteString(out, jvm.Disassemble(class))
				return err
			case "yaml":
				return writeYAML(out, class)
			default:
				return errors.Errorf("unknown format %q, want text or yaml", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Listing format: text or yaml")
	return cmd
}

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Compile and verify a program without printing code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := load(*configPath, args[0])
			if err != nil {
				return err
			}
			class, err := u.compile()
			if err != nil {
				return err
			}
			instrs := 0
			for _, f := range class.Functions {
				instrs += len(f.Code)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %s functions, %s instructions\n",
				u.path, humanize.Comma(int64(len(class.Functions))), humanize.Comma(int64(instrs)))
			return nil
		},
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file> [args...]",
		Short: "Compile a program and execute it on the VM",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := load(*configPath, args[0])
			if err != nil {
				return err
			}
			class, err := u.compile()
			if err != nil {
				return err
			}
			m := vm.New(class, cmd.OutOrStdout())
			err = m.Run(args[1:])
			logging.V(1).Infof("%s: executed %s instructions", u.path, humanize.Comma(m.Steps))
			return err
		},
	}
}

func newInterpCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "interp <file> [args...]",
		Short: "Run a program on the reference interpreter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := load(*configPath, args[0])
			if err != nil {
				return err
			}
			return interp.Run(u.prog, args[1:], cmd.OutOrStdout())
		},
	}
}

// errorMessage flattens aggregated errors into a numbered list.
func errorMessage(err error) string {
	if multi, ok := err.(*multierror.Error); ok {
		wr := multi.WrappedErrors()
		if len(wr) == 1 {
			return errorMessage(wr[0])
		}
		msg := fmt.Sprintf("%d errors occurred:", len(wr))
		for i, werr := range wr {
			msg += fmt.Sprintf("\n    %d) %s", i+1, errorMessage(werr))
		}
		return msg
	}
	return err.Error()
}

// reportError prints err as a diagnostic. Runtime faults of the compiled
// program are told apart from compiler errors.
func reportError(w io.Writer, err error) {
	label := color.New(color.FgRed, color.Bold).Sprint("error:")
	var fault *value.Fault
	if errors.As(err, &fault) {
		label = color.New(color.FgYellow, color.Bold).Sprint("fault:")
	}
	fmt.Fprintf(w, "%s %s\n", label, errorMessage(err))
}
