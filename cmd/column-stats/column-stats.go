package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/willbeason/appointment-noshows/pkg/fields"
	"github.com/willbeason/appointment-noshows/pkg/source"
)

const FlagOut = "out"

func main() {
	cmd.Flags().String(FlagOut, "", "output file path (default: stdout)")

	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "column-stats FILE|DIR",
	Short:   "Collect statistics about the columns of a raw appointments export",
	Args:    cobra.ExactArgs(1),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrColumnStats = errors.New("getting column statistics")

func runE(cmd *cobra.Command, args []string) error {
	inPath := args[0]

	src, err := source.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrColumnStats, err)
	}
	defer func() {
		err := src.Close()
		if err != nil {
			fmt.Println(err)
		}
	}()

	raw, err := source.Load(src, src.Format)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrColumnStats, inPath, err)
	}

	profile, err := fields.Profile(raw.Columns, raw.Rows)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrColumnStats, inPath, err)
	}

	outPath, err := cmd.Flags().GetString(FlagOut)
	if err != nil {
		return err
	}

	outFile := os.Stdout
	if outPath != "" {
		outFile, err = os.Create(outPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrColumnStats, err)
		}
		defer func() {
			err := outFile.Close()
			if err != nil {
				fmt.Println(err)
			}
		}()
	}

	_, err = fmt.Fprintf(outFile, "rows;%d\n", len(raw.Rows))
	if err != nil {
		return err
	}
	for i, column := range raw.Columns {
		_, err = fmt.Fprintf(outFile, "%s;%s\n", column, profile[i])
		if err != nil {
			return err
		}
	}

	return nil
}
