// Command lensed fits a lens model to an observed image.
//
// Usage:
//
//	lensed [flags] problem.yaml
//
// The problem file describes the data, the model and the sampler; see
// package config. Flags override the file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/config"
	"github.com/gogpu/lensed/report"
)

// flags holds the command line settings.
type flags struct {
	gpu         bool
	output      bool
	root        string
	driver      string
	backend     string
	verbose     bool
	quiet       bool
	batch       bool
	batchHeader bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "lensed [flags] problem.yaml",
		Short:         "Reconstruct lenses and sources",
		Version:       lensed.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], &f)
		},
	}
	fs := cmd.Flags()
	fs.BoolVar(&f.gpu, "gpu", false, "run on a GPU device")
	fs.BoolVar(&f.output, "output", false, "write the kernel source, log, parameter names and result images")
	fs.StringVar(&f.root, "root", "", "path prefix of output files")
	fs.StringVar(&f.driver, "driver", "", "sampling driver")
	fs.StringVar(&f.backend, "backend", "", "device backend")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log diagnostics")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "log warnings and errors only")
	fs.BoolVar(&f.batch, "batch", false, "print the result as a single line")
	fs.BoolVar(&f.batchHeader, "batch-header", false, "print the batch header and exit")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet", "batch")
	return cmd
}

// logLevel maps the verbosity flags to a log level.
func (f *flags) logLevel() slog.Level {
	switch {
	case f.verbose:
		return slog.LevelDebug
	case f.quiet:
		return slog.LevelWarn
	case f.batch:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// apply overrides problem settings with the flags the user set.
func (f *flags) apply(cmd *cobra.Command, p *config.Problem) {
	fs := cmd.Flags()
	if fs.Changed("gpu") {
		p.GPU = f.gpu
	}
	if fs.Changed("output") {
		p.Output = f.output
	}
	if fs.Changed("root") {
		p.Root = f.root
	}
	if fs.Changed("driver") {
		p.Driver = f.driver
	}
	if fs.Changed("backend") {
		p.Backend = f.backend
	}
}

func run(cmd *cobra.Command, path string, f *flags) (err error) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	lensed.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: f.logLevel()})))
	defer lensed.SetLogger(nil)

	prob, err := config.Load(path)
	if err != nil {
		return err
	}
	f.apply(cmd, prob)

	in, err := prob.Input()
	if err != nil {
		return err
	}
	layout, err := lensed.NewLayout(in.Objects)
	if err != nil {
		return err
	}
	params := layout.Params()

	if f.batchHeader {
		return report.BatchHeader(stdout, params)
	}

	human := !f.quiet && !f.batch
	printer := report.NewPrinter(stdout)
	if human {
		printer.Banner()
	}

	data, err := prob.Data()
	if err != nil {
		return err
	}
	drv, err := prob.NewDriver()
	if err != nil {
		return err
	}

	res, err := lensed.Run(cmd.Context(), in, data, drv, prob.Options()...)
	if err != nil {
		return err
	}
	// closed last: a late-flushing driver keeps stdout redirected
	defer func() {
		err = errors.Join(err, res.Close())
	}()

	if prob.Output {
		if err := report.WriteParamNames(prob.Root, params); err != nil {
			return err
		}
		if _, err := report.WriteImages(prob.Root, res.Dump, data.Width, data.Height); err != nil {
			return err
		}
	}
	if human {
		printer.Summary(res, params)
	}
	if f.batch {
		return report.BatchRow(stdout, res)
	}
	return nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lensed: %v\n", err)
		os.Exit(1)
	}
}
