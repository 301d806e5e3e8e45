package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/xuri/excelize/v2"
)

var ErrWorkbook = errors.New("writing workbook")

const (
	summarySheet = "summary"
	maxSheetName = 31
)

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

func sheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// sheetNames hands out sheet names which are unique ignoring case, as Excel
// requires. A name already taken once truncated gets a "~N" suffix.
type sheetNames map[string]bool

func (used sheetNames) next(name string) string {
	base := sheetName(name)
	candidate := base
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		candidate = base[:min(len(base), maxSheetName-len(suffix))] + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// Summary is the data-quality summary written to the first sheet of a
// workbook.
type Summary struct {
	FileInfo

	OutputRows       int
	UnclassifiedRows int
	Showed           int
	NoShow           int
}

// ReportSummary summarizes a Prepare run.
func ReportSummary(report *appointments.Report) Summary {
	return Summary{
		FileInfo:         InfoOf(report),
		OutputRows:       report.OutputRows,
		UnclassifiedRows: len(report.Unclassified),
		Showed:           report.Showed,
		NoShow:           report.NoShow,
	}
}

// TableSummary summarizes a prepared table read back with ReadAppointments.
func TableSummary(table *appointments.Table, info FileInfo) Summary {
	summary := Summary{FileInfo: info, OutputRows: table.Len()}
	summary.NoShow, summary.Showed = appointments.ShowedCounts(table)
	for i := range table.Len() {
		if table.Records[i].DaysToAppointmentBin == appointments.Unclassified {
			summary.UnclassifiedRows++
		}
	}
	return summary
}

// WriteWorkbook writes an XLSX workbook with a summary sheet followed by one
// sheet per grouping.
func WriteWorkbook(path string, summary Summary, groupings []appointments.Grouping) error {
	f := excelize.NewFile()
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Println(err)
		}
	}()

	err := f.SetSheetName("Sheet1", summarySheet)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWorkbook, err)
	}

	rows := [][]any{
		{"run_id", summary.RunID},
		{"input_blake2b", summary.Fingerprint},
		{"input_rows", summary.InputRows},
		{"output_rows", summary.OutputRows},
		{"rejected_rows", summary.RejectedRows},
		{"duplicate_rows", summary.DuplicateRows},
		{"unclassified_lead_times", summary.UnclassifiedRows},
		{"showed", summary.Showed},
		{"no_show", summary.NoShow},
	}
	err = writeRows(f, summarySheet, rows)
	if err != nil {
		return err
	}

	used := sheetNames{summarySheet: true}
	for _, grouping := range groupings {
		sheet := used.next(grouping.Name())
		_, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("%w: adding sheet %q: %w", ErrWorkbook, sheet, err)
		}

		header := make([]any, 0, len(grouping.GroupBy)+5)
		for _, c := range grouping.GroupBy {
			header = append(header, string(c))
		}
		header = append(header, "total", "no_show", "showed", "no_show_proportion", "showed_proportion")

		rows := [][]any{header}
		for _, g := range grouping.Groups {
			row := make([]any, 0, len(header))
			for _, k := range g.Key {
				row = append(row, k)
			}
			row = append(row, g.Total, g.Counts[0], g.Counts[1], g.Proportions[0], g.Proportions[1])
			rows = append(rows, row)
		}

		err = writeRows(f, sheet, rows)
		if err != nil {
			return err
		}
	}

	err = f.SaveAs(path)
	if err != nil {
		return fmt.Errorf("%w: saving %q: %w", ErrWorkbook, path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWorkbook, err)
		}
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return fmt.Errorf("%w: sheet %q row %d: %w", ErrWorkbook, sheet, i+1, err)
		}
	}
	return nil
}
