package source

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/willbeason/bondsmith"
	"github.com/willbeason/bondsmith/fileio"
)

type Format string

const (
	CSV   Format = "csv"
	JSONL Format = "jsonl"
)

var ErrSource = errors.New("opening source")

// jsonlPattern matches the files read from a directory source.
var jsonlPattern = regexp.MustCompile(`\.jsonl(\.gz)?$`)

// Source is an appointments export on disk: a single CSV or JSONL file,
// optionally gzipped, or a directory of JSONL files read in name order.
type Source struct {
	Paths  []string
	Format Format

	// Size is the number of bytes on disk, for reporting progress against
	// BytesRead.
	Size int64

	files   *fileio.MultiReader
	counter *bondsmith.CountReader
	gz      *gzip.Reader
	reader  io.Reader
}

// Open prepares path for reading. The format of a file is taken from its
// extension.
func Open(path string) (*Source, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}

	s := &Source{}
	if stat.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading directory %q: %w", ErrSource, path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !jsonlPattern.MatchString(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSource, err)
			}
			s.Paths = append(s.Paths, filepath.Join(path, entry.Name()))
			s.Size += info.Size()
		}
		if len(s.Paths) == 0 {
			return nil, fmt.Errorf("%w: no .jsonl files in %q", ErrSource, path)
		}
		sort.Strings(s.Paths)
		s.Format = JSONL
	} else {
		s.Paths = []string{path}
		s.Size = stat.Size()
		s.Format, err = formatOf(path)
		if err != nil {
			return nil, err
		}
	}

	gzipped := 0
	for _, p := range s.Paths {
		if strings.HasSuffix(p, ".gz") {
			gzipped++
		}
	}
	if gzipped != 0 && gzipped != len(s.Paths) {
		return nil, fmt.Errorf("%w: %q mixes gzipped and plain files", ErrSource, path)
	}

	s.files = fileio.NewMultiFileReader(s.Paths)
	s.counter = bondsmith.NewCountReader(s.files)
	s.reader = s.counter

	if gzipped > 0 {
		// gzip correctly handles concatenated files.
		s.gz, err = gzip.NewReader(s.counter)
		if err != nil {
			_ = s.files.Close()
			return nil, fmt.Errorf("%w: starting gzip reader stream for %q: %w", ErrSource, path, err)
		}
		s.reader = s.gz
	}

	return s, nil
}

// Close releases the file currently being read, if any. Files read to the
// end are already closed.
func (s *Source) Close() error {
	var errs []error
	if s.gz != nil {
		errs = append(errs, s.gz.Close())
	}
	errs = append(errs, s.files.Close())
	err := errors.Join(errs...)
	if err != nil {
		return fmt.Errorf("%w: closing %q: %w", ErrSource, s.Paths, err)
	}
	return nil
}

func formatOf(path string) (Format, error) {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".gz")
	switch filepath.Ext(name) {
	case ".csv":
		return CSV, nil
	case ".jsonl", ".json":
		return JSONL, nil
	default:
		return "", fmt.Errorf("%w: %q is neither a .csv nor a .jsonl file", ErrSource, path)
	}
}

func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// BytesRead is the number of bytes consumed from disk so far.
func (s *Source) BytesRead() int64 {
	return s.counter.Count()
}

// Load reads the whole source as a RawTable.
func Load(r io.Reader, format Format) (*appointments.RawTable, error) {
	switch format {
	case CSV:
		return appointments.LoadCSV(r)
	case JSONL:
		return appointments.LoadJSONL(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrSource, format)
	}
}
