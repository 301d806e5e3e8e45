package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/willbeason/appointment-noshows/pkg/config"
	"github.com/willbeason/appointment-noshows/pkg/export"
	"github.com/willbeason/appointment-noshows/pkg/logging"
	"github.com/willbeason/appointment-noshows/pkg/source"
	"github.com/willbeason/appointment-noshows/pkg/tables"
	"golang.org/x/term"
)

const (
	FlagConfig = "config"
	FlagRunID  = "run-id"

	defaultWidth = 80
)

func init() {
	cmd.Flags().String(FlagConfig, "", "path to a YAML config file")
	cmd.Flags().String(FlagRunID, "", "run identifier (default: random UUID)")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "prepare-appointments FILE|DIR [OUT_DIR]",
	Short:   "cleans a medical appointments export and writes it as Apache Parquet",
	Args:    cobra.RangeArgs(1, 2),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrPrepare = errors.New("preparing appointments")

func runE(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	inPath := args[0]
	outDir := outputDir(args, cfg)

	err = os.MkdirAll(outDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrPrepare, err)
	}

	src, err := source.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepare, err)
	}
	defer func() {
		err := src.Close()
		if err != nil {
			fmt.Println(err)
		}
	}()
	logger.Debug("reading input", "paths", src.Paths, "format", src.Format, "bytes", src.Size)

	p := mpb.New(mpb.WithWidth(terminalWidth()), mpb.WithOutput(cmd.ErrOrStderr()))
	bar := p.AddBar(src.Size,
		mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
		mpb.PrependDecorators(decor.Name(filepath.Base(inPath))),
		mpb.BarRemoveOnComplete(),
	)

	raw, err := source.Load(&progressReader{src: src, bar: bar, start: time.Now()}, src.Format)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrPrepare, inPath, err)
	}

	runID, err := cmd.Flags().GetString(FlagRunID)
	if err != nil {
		return err
	}

	table, report, err := appointments.Prepare(raw,
		appointments.WithLogger(logger),
		appointments.WithRunID(runID),
	)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrPrepare, inPath, err)
	}

	outPath := filepath.Join(outDir, tables.AppointmentsName+tables.ParquetExt)
	err = export.WriteAppointments(outPath, table, export.InfoOf(report))
	if err != nil {
		return err
	}

	logger.Info("wrote appointments",
		"path", outPath,
		"rows", report.OutputRows,
		"showed", report.Showed,
		"no_show", report.NoShow)

	return nil
}

// outputDir is the directory argument if one was passed, otherwise the
// configured one.
func outputDir(args []string, cfg *config.Config) string {
	if len(args) > 1 {
		return args[1]
	}
	return cfg.Output.Dir
}

// terminalWidth falls back to defaultWidth when stdout is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

type incrementer interface {
	IncrBy(n int, wdd ...time.Duration)
}

var _ incrementer = (*mpb.Bar)(nil)

// progressReader advances bar by the bytes src has consumed from disk.
type progressReader struct {
	src      *source.Source
	bar      incrementer
	start    time.Time
	lastSeen int64
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)

	curProgress := r.src.BytesRead()
	if curProgress > r.lastSeen {
		r.bar.IncrBy(int(curProgress-r.lastSeen), time.Since(r.start))
		r.lastSeen = curProgress
	}

	return n, err
}

var _ io.Reader = (*progressReader)(nil)
