package appointments

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/willbeason/bondsmith/jsonio"
	"golang.org/x/crypto/blake2b"
)

// RawTable is the dataset as read from its source, before any coercion.
type RawTable struct {
	Columns []string
	Rows    [][]string

	// Lines holds the source line (CSV) or record number (JSONL) of each row.
	// May be nil, in which case rows are numbered from 2 as if under a header.
	Lines []int

	// Fingerprint is the hex BLAKE2b-256 digest of the bytes the table was
	// read from.
	Fingerprint string
}

func (t *RawTable) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

func newFingerprint() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only returned for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

// LoadCSV reads a comma-separated table with a header row.
func LoadCSV(r io.Reader) (*RawTable, error) {
	h := newFingerprint()
	reader := csv.NewReader(io.TeeReader(r, h))

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrLoad)
		}
		return nil, fmt.Errorf("%w: reading header: %w", ErrLoad, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &RawTable{Columns: header}
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, record)
		table.Lines = append(table.Lines, line)
	}

	table.Fingerprint = hex.EncodeToString(h.Sum(nil))
	return table, nil
}

// LoadJSONL reads one JSON object per line. Columns are the union of the keys
// seen, with recognized columns first in source order.
func LoadJSONL(r io.Reader) (*RawTable, error) {
	h := newFingerprint()
	entries := jsonio.NewReader(io.TeeReader(r, h), func() *map[string]any {
		v := make(map[string]any)
		return &v
	})

	var objects []map[string]any
	seen := make(map[string]bool)
	var keys []string
	for entry, err := range entries.Read() {
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: record %d: %w", ErrLoad, len(objects)+1, err)
		}

		for k := range *entry {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		objects = append(objects, *entry)
	}

	slices.SortFunc(keys, compareHeaders)

	table := &RawTable{
		Columns: keys,
		Rows:    make([][]string, len(objects)),
		Lines:   make([]int, len(objects)),
	}
	for i, object := range objects {
		row := make([]string, len(keys))
		for j, k := range keys {
			row[j] = jsonCell(object[k])
		}
		table.Rows[i] = row
		table.Lines[i] = i + 1
	}

	table.Fingerprint = hex.EncodeToString(h.Sum(nil))
	return table, nil
}

func columnOrder(name string) int {
	column, err := ParseColumn(name)
	if err != nil {
		return len(CleanColumns) + 1
	}
	if column == NoShow {
		column = Showed
	}
	return slices.Index(CleanColumns, column)
}

func compareHeaders(a, b string) int {
	if d := columnOrder(a) - columnOrder(b); d != 0 {
		return d
	}
	return strings.Compare(a, b)
}

func jsonCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return flag(v)
	default:
		return fmt.Sprint(v)
	}
}
