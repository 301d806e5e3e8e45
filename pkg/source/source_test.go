package source

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "PatientId,AppointmentID,Gender,ScheduledDay,AppointmentDay,Age,Neighbourhood,Scholarship,Hipertension,Diabetes,Alcoholism,Handcap,SMS_received,No-show\n"

const row = "29872499824296,5642903,F,2016-04-29T18:38:08Z,2016-04-29T00:00:00Z,62,JARDIM DA PENHA,0,1,0,0,0,0,No\n"

const record = `{"PatientId":"29872499824296","AppointmentID":5642903,"Gender":"F","ScheduledDay":"2016-04-29T18:38:08Z","AppointmentDay":"2016-04-29T00:00:00Z","Age":62,"Neighbourhood":"JARDIM DA PENHA","Scholarship":0,"Hipertension":1,"Diabetes":0,"Alcoholism":0,"Handcap":0,"SMS_received":0,"No-show":"No"}` + "\n"

func write(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noshows.csv")
	write(t, path, []byte(header+row+row))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, CSV, s.Format)
	assert.EqualValues(t, len(header)+2*len(row), s.Size)

	raw, err := Load(s, s.Format)
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 2)
	assert.Equal(t, s.Size, s.BytesRead())
}

func TestOpen_GzippedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noshows.csv.gz")
	write(t, path, gzipped(t, header+row))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, CSV, s.Format)

	raw, err := Load(s, s.Format)
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 1)
}

func TestOpen_Directory(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.jsonl"), []byte(record))
	write(t, filepath.Join(dir, "a.jsonl"), []byte(record+record))
	write(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, JSONL, s.Format)
	assert.Equal(t, []string{filepath.Join(dir, "a.jsonl"), filepath.Join(dir, "b.jsonl")}, s.Paths)

	raw, err := Load(s, s.Format)
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 3)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "noshows.txt")
	write(t, txt, []byte(header))

	mixed := filepath.Join(dir, "mixed")
	require.NoError(t, os.Mkdir(mixed, 0o755))
	write(t, filepath.Join(mixed, "a.jsonl"), []byte(record))
	write(t, filepath.Join(mixed, "b.jsonl.gz"), gzipped(t, record))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	for _, path := range []string{txt, mixed, empty, filepath.Join(dir, "missing.csv")} {
		_, err := Open(path)
		assert.ErrorIs(t, err, ErrSource, path)
	}
}

func openFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("open files are not listed in /proc/self/fd")
	}
	return len(entries)
}

func TestSource_Close(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "noshows.csv")
	write(t, plain, []byte(header+row+row))
	compressed := filepath.Join(dir, "noshows.csv.gz")
	write(t, compressed, gzipped(t, header+row+row))

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			before := openFiles(t)

			s, err := Open(path)
			require.NoError(t, err)

			// Stop partway so the file is still open.
			_, err = s.Read(make([]byte, 10))
			require.NoError(t, err)
			assert.Equal(t, before+1, openFiles(t))

			require.NoError(t, s.Close())
			assert.Equal(t, before, openFiles(t))
			require.NoError(t, s.Close())
		})
	}
}

func TestSource_CloseAfterLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jsonl"), []byte(record))
	write(t, filepath.Join(dir, "b.jsonl"), []byte(record))

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = Load(s, s.Format)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
