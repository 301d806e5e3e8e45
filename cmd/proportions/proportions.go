package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/willbeason/appointment-noshows/pkg/config"
	"github.com/willbeason/appointment-noshows/pkg/export"
	"github.com/willbeason/appointment-noshows/pkg/logging"
	"github.com/willbeason/appointment-noshows/pkg/tables"
)

const (
	FlagConfig   = "config"
	FlagGroupBy  = "group-by"
	FlagXLSX     = "xlsx"
	FlagSample   = "sample"
	FlagSeed     = "seed"
	FlagAgeWidth = "age-width"
)

func init() {
	cmd.Flags().String(FlagConfig, "", "path to a YAML config file")
	cmd.Flags().StringArray(FlagGroupBy, nil, "comma-separated columns to group by, repeatable (default: from config)")
	cmd.Flags().Bool(FlagXLSX, false, "also write the proportions as an XLSX workbook")
	cmd.Flags().Float64(FlagSample, 1, "fraction of appointments to sample before grouping")
	cmd.Flags().Int64(FlagSeed, 0, "random seed for --sample")
	cmd.Flags().Int(FlagAgeWidth, 0, "print an age histogram with buckets of this many years")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "proportions IN_PARQUET [OUT_DIR]",
	Short:   "computes show and no-show proportions for groups of prepared appointments",
	Args:    cobra.RangeArgs(1, 2),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrProportions = errors.New("computing proportions")

func runE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	outDir := cfg.Output.Dir
	if len(args) > 1 {
		outDir = args[1]
	}

	groupings, err := getGroupings(cmd, cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProportions, err)
	}

	err = os.MkdirAll(outDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrProportions, err)
	}

	table, info, err := export.ReadAppointments(ctx, inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProportions, err)
	}
	logger = logger.With("run_id", info.RunID)
	logger.Debug("read appointments", "path", inPath, "rows", table.Len())

	// Summarize before sampling so the workbook describes the whole run.
	summary := export.TableSummary(table, info)

	fraction, err := cmd.Flags().GetFloat64(FlagSample)
	if err != nil {
		return err
	}
	if fraction <= 0 || fraction > 1 {
		return fmt.Errorf("%w: --%s must be in (0, 1], got %g", ErrProportions, FlagSample, fraction)
	}
	if fraction < 1 {
		seed, err := getSeed(cmd)
		if err != nil {
			return fmt.Errorf("getting seed: %w", err)
		}
		table = appointments.Sample(table, fraction, rand.New(rand.NewSource(seed)))
		logger.Info("sampled appointments", "fraction", fraction, "seed", seed, "rows", table.Len())
	}

	results := make([]appointments.Grouping, 0, len(groupings))
	for _, groupBy := range groupings {
		grouping, err := appointments.Proportions(table, groupBy)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProportions, err)
		}
		results = append(results, grouping)

		err = printGrouping(cmd.OutOrStdout(), grouping)
		if err != nil {
			return err
		}
	}

	ageWidth, err := cmd.Flags().GetInt(FlagAgeWidth)
	if err != nil {
		return err
	}
	if ageWidth > 0 {
		err = printAgeHistogram(cmd.OutOrStdout(), appointments.AgeHistogram(table, ageWidth))
		if err != nil {
			return err
		}
	}

	outPath := filepath.Join(outDir, tables.ProportionsName+tables.ParquetExt)
	err = export.WriteProportions(outPath, results)
	if err != nil {
		return err
	}
	logger.Info("wrote proportions", "path", outPath, "groupings", len(results))

	writeWorkbook, err := cmd.Flags().GetBool(FlagXLSX)
	if err != nil {
		return err
	}
	if writeWorkbook || cfg.Output.Workbook {
		workbookPath := filepath.Join(outDir, tables.ProportionsName+tables.XLSXExt)
		err = export.WriteWorkbook(workbookPath, summary, results)
		if err != nil {
			return err
		}
		logger.Info("wrote workbook", "path", workbookPath)
	}

	return nil
}

func getGroupings(cmd *cobra.Command, cfg *config.Config) ([][]appointments.Column, error) {
	names := cfg.Groupings
	if cmd.Flags().Changed(FlagGroupBy) {
		flagValues, err := cmd.Flags().GetStringArray(FlagGroupBy)
		if err != nil {
			return nil, err
		}
		names = make([][]string, len(flagValues))
		for i, value := range flagValues {
			names[i] = strings.Split(value, ",")
		}
	}

	groupings := make([][]appointments.Column, len(names))
	for i, columnNames := range names {
		columns, err := appointments.ParseColumns(columnNames)
		if err != nil {
			return nil, err
		}
		groupings[i] = columns
	}
	return groupings, nil
}

func getSeed(cmd *cobra.Command) (int64, error) {
	// Check if the user set the seed manually.
	seedSet := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == FlagSeed {
			seedSet = true
		}
	})

	if seedSet {
		return cmd.Flags().GetInt64(FlagSeed)
	}
	return time.Now().UnixNano(), nil
}

func printGrouping(w io.Writer, g appointments.Grouping) error {
	_, err := fmt.Fprintf(w, "%s;total;no_show;showed;no_show_proportion;showed_proportion\n", g.Name())
	if err != nil {
		return err
	}
	for _, group := range g.Groups {
		_, err = fmt.Fprintf(w, "%s;%d;%d;%d;%.4f;%.4f\n",
			strings.Join(group.Key, ","), group.Total,
			group.Counts[0], group.Counts[1],
			group.Proportions[0], group.Proportions[1])
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

func printAgeHistogram(w io.Writer, buckets []appointments.AgeBucket) error {
	_, err := fmt.Fprintln(w, "age;no_show;showed")
	if err != nil {
		return err
	}
	for _, b := range buckets {
		_, err = fmt.Fprintf(w, "%d-%d;%d;%d\n", b.Low, b.High-1, b.NoShow, b.Showed)
		if err != nil {
			return err
		}
	}
	return nil
}
