package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willbeason/appointment-noshows/pkg/config"
	"github.com/willbeason/appointment-noshows/pkg/export"
	"github.com/willbeason/appointment-noshows/pkg/source"
	"github.com/willbeason/appointment-noshows/pkg/tables"
)

// Four rows: one has a negative age and one repeats another exactly.
const sampleCSV = `PatientId,AppointmentID,Gender,ScheduledDay,AppointmentDay,Age,Neighbourhood,Scholarship,Hipertension,Diabetes,Alcoholism,Handcap,SMS_received,No-show
29872499824296,5642903,F,2016-04-29T18:38:08Z,2016-04-29T00:00:00Z,62,JARDIM DA PENHA,0,1,0,0,0,0,No
558997776694438,5642503,M,2016-04-29T16:08:27Z,2016-04-29T00:00:00Z,56,JARDIM DA PENHA,0,0,0,0,0,0,No
8841186448183,5642494,F,2016-04-29T16:07:23Z,2016-04-29T00:00:00Z,-1,JARDIM DA PENHA,0,1,1,0,0,0,No
558997776694438,5642503,M,2016-04-29T16:08:27Z,2016-04-29T00:00:00Z,56,JARDIM DA PENHA,0,0,0,0,0,0,No
`

type recorder struct {
	total int
	calls int
}

func (r *recorder) IncrBy(n int, _ ...time.Duration) {
	r.total += n
	r.calls++
}

func TestOutputDir(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = "configured"

	assert.Equal(t, "configured", outputDir([]string{"in.csv"}, cfg))
	assert.Equal(t, "given", outputDir([]string{"in.csv", "given"}, cfg))
}

func TestProgressReader(t *testing.T) {
	var compressed bytes.Buffer
	w := gzip.NewWriter(&compressed)
	_, err := w.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	plain := filepath.Join(dir, "noshows.csv")
	require.NoError(t, os.WriteFile(plain, []byte(sampleCSV), 0o644))
	gzipped := filepath.Join(dir, "noshows.csv.gz")
	require.NoError(t, os.WriteFile(gzipped, compressed.Bytes(), 0o644))

	for _, path := range []string{plain, gzipped} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := source.Open(path)
			require.NoError(t, err)
			defer src.Close()

			bar := &recorder{}
			r := &progressReader{src: src, bar: bar, start: time.Now()}

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sampleCSV, string(got))

			assert.EqualValues(t, src.Size, bar.total)
			assert.EqualValues(t, src.Size, r.lastSeen)
			assert.Positive(t, bar.calls)
		})
	}
}

func TestRunE_ConfiguredOutputDir(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "noshows.csv")
	require.NoError(t, os.WriteFile(inPath, []byte(sampleCSV), 0o644))

	outDir := filepath.Join(dir, "configured")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("logging:\n  level: error\noutput:\n  dir: "+outDir+"\n"), 0o644))

	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{inPath, "--" + FlagConfig, configPath, "--" + FlagRunID, "run-1"})
	require.NoError(t, cmd.Execute())

	table, info, err := export.ReadAppointments(context.Background(),
		filepath.Join(outDir, tables.AppointmentsName+tables.ParquetExt))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "run-1", info.RunID)
	assert.NotEmpty(t, info.Fingerprint)
	assert.Equal(t, 4, info.InputRows)
	assert.Equal(t, 1, info.RejectedRows)
	assert.Equal(t, 1, info.DuplicateRows)
}
