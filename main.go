// bmpfilter reads a 24-bit BMP from stdin, filters every pixel and writes it to stdout
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anas-shakeel/go-bmp-filter/internal/bmp"
	"github.com/anas-shakeel/go-bmp-filter/internal/config"
	"github.com/anas-shakeel/go-bmp-filter/internal/filters"
	"github.com/anas-shakeel/go-bmp-filter/internal/stream"
	"github.com/anas-shakeel/go-bmp-filter/internal/trace"
)

const (
	exitOK = iota
	exitUsage
	exitSeek
	exitRead
	exitAlloc
	exitWrite
	exitMalformed
	exitConfig
	exitFailure
)

const usageLine = "Usage: bmpfilter [-g]"

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

// run executes one invocation and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	if len(args) > 1 {
		fmt.Fprintln(stdout, usageLine)
		return exitUsage
	}

	cfg, err := config.Load(getenv)
	if err != nil {
		fmt.Fprintf(stderr, "bmpfilter: %v\n", err)
		return exitConfig
	}
	logger := trace.New(stderr, cfg.Debug)

	cmd := newRootCmd(cfg, logger, stdin)
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	// -h/--help is just another argument shape outside [-g]
	var helpRequested bool
	cmd.SetHelpFunc(func(*cobra.Command, []string) { helpRequested = true })

	err = cmd.Execute()
	if err == nil && helpRequested {
		err = errUsage
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintln(stdout, usageLine)
	} else if err != nil {
		logger.Debugf("%v", err)
	}
	return exitCode(err)
}

func newRootCmd(cfg config.Config, logger *trace.Logger, stdin io.Reader) *cobra.Command {
	var grayscale bool

	cmd := &cobra.Command{
		Use:           "bmpfilter [-g]",
		Short:         "Threshold or grayscale a 24-bit BMP from stdin to stdout",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := filters.Threshold
			if grayscale {
				mode = filters.Grayscale
			}
			return filterStream(cfg, logger, mode, stdin, cmd.OutOrStdout())
		},
	}
	cmd.SetFlagErrorFunc(func(*cobra.Command, error) error { return errUsage })
	bindFlags(cmd.Flags(), &grayscale)

	return cmd
}

func bindFlags(fs *pflag.FlagSet, grayscale *bool) {
	fs.BoolVarP(grayscale, "grayscale", "g", false, "grayscale instead of black/white threshold")
}

// filterStream is the whole pipeline: load, parse header, filter, emit.
func filterStream(cfg config.Config, logger *trace.Logger, mode filters.Mode, in io.Reader, out io.Writer) error {
	buf, err := stream.Load(in, cfg.MaxBytes)
	if err != nil {
		return err
	}
	logger.Debugf("fileSizeInBytes = %d", len(buf))

	bitmap, err := bmp.Parse(buf, cfg.HeaderPolicy)
	if err != nil {
		return err
	}
	bitmap.PrintMetadata(logger.Debugf)
	logger.Debugf("Mode: \t\t%v, workers %d", mode, cfg.Workers)

	err = filters.Apply(bitmap, mode,
		filters.WithWorkers(cfg.Workers),
		filters.WithTracer(logger.PixelTracer()),
	)
	if err != nil {
		return err
	}

	return stream.Emit(out, bitmap.Data)
}

func exitCode(err error) int {
	var formatErr bmp.FormatError
	var unsupportedErr bmp.UnsupportedError

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, stream.ErrSeek):
		return exitSeek
	case errors.Is(err, stream.ErrRead):
		return exitRead
	case errors.Is(err, stream.ErrAlloc):
		return exitAlloc
	case errors.Is(err, stream.ErrWrite):
		return exitWrite
	case errors.Is(err, bmp.ErrPixelBounds),
		errors.As(err, &formatErr),
		errors.As(err, &unsupportedErr):
		return exitMalformed
	}
	return exitFailure
}
