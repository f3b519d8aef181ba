// Command dftlab transforms a .txt file of samples and saves the result as
// "<prefix>_N<N>.txt", one "<re> <im>" line per value.
//
//	dftlab [flags] samples.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/JonMunkholm/dftlab/internal/config"
	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/JonMunkholm/dftlab/internal/logging"
	"github.com/JonMunkholm/dftlab/internal/transform"
	"github.com/joho/godotenv"
)

func main() {
	// .env values never override the shell for the command line tool.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "error: %s (%s)\n", msg.Message, msg.Code)
		if msg.Action != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", msg.Action)
		}
		slog.Debug("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dftlab", flag.ContinueOnError)
	var (
		grid     = fs.Bool("grid", false, "reshape samples into a near-square grid")
		strict   = fs.Bool("strict", cfg.Ingest.Strict, "fail on the first non-numeric token")
		name     = fs.String("transform", "", "transform to apply (default: config for the chosen mode)")
		out      = fs.String("out", cfg.Export.Dir, "output directory")
		prefix   = fs.String("prefix", cfg.Export.Prefix, "output file name prefix")
		reDigits = fs.Int("real", cfg.Export.RealDigits, "decimal places for the real part")
		imDigits = fs.Int("imag", cfg.Export.ImagDigits, "decimal places for the imaginary part")
		n        = fs.Int("n", -1, "N shown in the file name (default: sample count)")
		verbose  = fs.Bool("v", false, "log pipeline steps")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: dftlab [flags] <file.txt>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("no file provided")
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

	mode := core.ModeFlat
	flatName, gridName := cfg.Transform.Flat, ""
	if *grid {
		mode = core.ModeGrid
		flatName, gridName = "", cfg.Transform.Grid
	}
	if *name != "" {
		if mode == core.ModeGrid {
			gridName = *name
		} else {
			flatName = *name
		}
	}

	service := core.NewService(core.Options{
		MaxFileSize:   cfg.Ingest.MaxFileSize,
		MaxConcurrent: 1,
		MaxWait:       cfg.Ingest.MaxWait,
		Strict:        *strict,
	})
	defer service.Close()

	runner, err := transform.NewRunner(service.Workspace(), flatName, gridName)
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	in, err := service.Ingest(ctx, core.IngestRequest{
		FileName: filepath.Base(path),
		Body:     f,
		Mode:     mode,
	})
	if err != nil {
		return err
	}
	if in.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d non-numeric tokens\n", in.Skipped)
	}

	if err := runner.Compute(service.Workspace().Snapshot()); err != nil {
		return err
	}

	opts := core.ExportOptions{
		Prefix:    *prefix,
		Precision: core.Precision{Real: *reDigits, Imag: *imDigits},
	}
	if *n >= 0 {
		opts.SizeLabel = *n
	}
	receipt, err := service.Export(ctx, core.FileDownloader{Dir: *out}, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d values, %d bytes)\n", filepath.Join(*out, receipt.FileName), receipt.Lines, receipt.Bytes)
	return nil
}
