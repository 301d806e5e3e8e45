package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/willbeason/appointment-noshows/pkg/config"
	"github.com/willbeason/appointment-noshows/pkg/export"
	"github.com/willbeason/appointment-noshows/pkg/tables"
	"github.com/xuri/excelize/v2"
)

// Six rows: one has a negative age and one is scheduled after its appointment.
const sampleCSV = `PatientId,AppointmentID,Gender,ScheduledDay,AppointmentDay,Age,Neighbourhood,Scholarship,Hipertension,Diabetes,Alcoholism,Handcap,SMS_received,No-show
29872499824296,5642903,F,2016-04-29T18:38:08Z,2016-04-29T00:00:00Z,62,JARDIM DA PENHA,0,1,0,0,0,0,No
558997776694438,5642503,M,2016-04-29T16:08:27Z,2016-04-29T00:00:00Z,56,JARDIM DA PENHA,0,0,0,0,0,0,No
4262962299951,5642549,F,2016-04-29T16:19:04Z,2016-04-29T00:00:00Z,62,MATA DA PRAIA,1,0,0,1,0,0,Yes
867951213174,5642828,F,2016-01-01T17:29:31Z,2016-01-10T00:00:00Z,8,PONTAL DE CAMBURI,0,0,0,0,0,0,No
8841186448183,5642494,F,2016-04-29T16:07:23Z,2016-04-29T00:00:00Z,-1,JARDIM DA PENHA,0,1,1,0,0,0,No
95985133231274,5626772,F,2016-04-27T08:36:51Z,2016-04-26T00:00:00Z,76,REPÚBLICA,0,1,0,0,0,0,Yes
`

func TestPrintGrouping(t *testing.T) {
	g := appointments.Grouping{
		GroupBy: []appointments.Column{appointments.Gender},
		Groups: []appointments.GroupProportion{
			{Key: []string{"F"}, Total: 4000, Counts: [2]int{800, 3200}, Proportions: [2]float64{0.2, 0.8}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printGrouping(&buf, g))
	assert.Equal(t,
		"gender;total;no_show;showed;no_show_proportion;showed_proportion\n"+
			"F;4000;800;3200;0.2000;0.8000\n\n",
		buf.String())
}

func TestGetGroupings(t *testing.T) {
	cfg := config.Default()

	groupings, err := getGroupings(&cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, [][]appointments.Column{
		{appointments.Gender},
		{appointments.Sick},
		{appointments.SMSReceived},
		{appointments.DaysToAppointmentBins},
	}, groupings)

	cfg.Groupings = [][]string{{"gender", "colour"}}
	_, err = getGroupings(&cmd, cfg)
	assert.ErrorIs(t, err, appointments.ErrUnknownColumn)
}

func TestRunE_WorkbookSummary(t *testing.T) {
	raw, err := appointments.LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	table, report, err := appointments.Prepare(raw,
		appointments.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	dir := t.TempDir()
	inPath := filepath.Join(dir, tables.AppointmentsName+tables.ParquetExt)
	require.NoError(t, export.WriteAppointments(inPath, table, export.InfoOf(report)))

	outDir := filepath.Join(dir, "out")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{inPath, outDir, "--" + FlagXLSX})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "gender;total;no_show;showed")

	f, err := excelize.OpenFile(filepath.Join(outDir, tables.ProportionsName+tables.XLSXExt))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("summary")
	require.NoError(t, err)
	summary := make(map[string]string)
	for _, row := range rows {
		require.Len(t, row, 2)
		summary[row[0]] = row[1]
	}

	assert.Equal(t, report.RunID, summary["run_id"])
	assert.Equal(t, "6", summary["input_rows"])
	assert.Equal(t, "5", summary["output_rows"])
	assert.Equal(t, "1", summary["rejected_rows"])
	assert.Equal(t, "0", summary["duplicate_rows"])
	assert.Equal(t, "1", summary["unclassified_lead_times"])
}
