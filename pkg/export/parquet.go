package export

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/willbeason/appointment-noshows/pkg/appointments"
	"github.com/willbeason/appointment-noshows/pkg/tables"
)

const batchSize = 1 << 16

var (
	ErrWrite = errors.New("writing parquet")
	ErrRead  = errors.New("reading parquet")
)

// FileInfo is the provenance stored in the metadata of an appointments file.
// The row counts describe the input Prepare read, before rows were dropped.
type FileInfo struct {
	RunID       string
	Fingerprint string

	InputRows     int
	RejectedRows  int
	DuplicateRows int
}

// InfoOf returns the FileInfo describing the run behind report.
func InfoOf(report *appointments.Report) FileInfo {
	return FileInfo{
		RunID:         report.RunID,
		Fingerprint:   report.Fingerprint,
		InputRows:     report.InputRows,
		RejectedRows:  len(report.Rejected),
		DuplicateRows: report.DuplicateRows,
	}
}

func writeRecord(path string, schema *arrow.Schema, record arrow.Record) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrWrite, path, err)
	}
	// Don't close outFile; parquet handles closing it.
	writer, err := pqarrow.NewFileWriter(
		schema,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	)
	if err != nil {
		return fmt.Errorf("%w: creating writer for %q: %w", ErrWrite, path, err)
	}

	err = writer.Write(record)
	if err != nil {
		_ = writer.Close()
		return fmt.Errorf("%w: %q: %w", ErrWrite, path, err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("%w: closing %q: %w", ErrWrite, path, err)
	}
	return nil
}

var errOutOfRange = errors.New("value out of range")

func toInt32(c appointments.Column, v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s %d does not fit in int32", errOutOfRange, c, v)
	}
	return int32(v), nil
}

// WriteAppointments writes the prepared table to path as gzip-compressed
// Parquet, recording info in the file metadata.
func WriteAppointments(path string, table *appointments.Table, info FileInfo) error {
	schema := tables.WithMetadata(tables.Appointments, tables.NewMetadataBuilder().
		AddIfSet(tables.RunIDKey, info.RunID).
		AddIfSet(tables.FingerprintKey, info.Fingerprint).
		Add(tables.InputRowsKey, strconv.Itoa(info.InputRows)).
		Add(tables.RejectedRowsKey, strconv.Itoa(info.RejectedRows)).
		Add(tables.DuplicateRowsKey, strconv.Itoa(info.DuplicateRows)))

	allocator := memory.NewGoAllocator()
	recordBuilder := array.NewRecordBuilder(allocator, schema)
	defer recordBuilder.Release()

	fields := recordBuilder.Fields()
	patientIDField := fields[0].(*array.StringBuilder)
	appointmentIDField := fields[1].(*array.Int64Builder)
	genderField := fields[2].(*array.BinaryDictionaryBuilder)
	scheduledDayField := fields[3].(*array.Date32Builder)
	appointmentDayField := fields[4].(*array.TimestampBuilder)
	ageField := fields[5].(*array.Int32Builder)
	neighbourhoodField := fields[6].(*array.BinaryDictionaryBuilder)
	scholarshipField := fields[7].(*array.BooleanBuilder)
	hypertensionField := fields[8].(*array.BooleanBuilder)
	diabetesField := fields[9].(*array.BooleanBuilder)
	alcoholismField := fields[10].(*array.BooleanBuilder)
	handicapField := fields[11].(*array.Int32Builder)
	smsReceivedField := fields[12].(*array.BooleanBuilder)
	showedField := fields[13].(*array.BooleanBuilder)
	sickField := fields[14].(*array.BooleanBuilder)
	daysField := fields[15].(*array.Int32Builder)
	binsField := fields[16].(*array.BinaryDictionaryBuilder)

	for i := range table.Records {
		a := &table.Records[i]

		age, err := toInt32(appointments.Age, a.Age)
		if err != nil {
			return fmt.Errorf("%w: %q: appointment %d: %w", ErrWrite, path, a.AppointmentID, err)
		}
		handicap, err := toInt32(appointments.Handicap, a.Handicap)
		if err != nil {
			return fmt.Errorf("%w: %q: appointment %d: %w", ErrWrite, path, a.AppointmentID, err)
		}
		days, err := toInt32(appointments.DaysToAppointment, a.DaysToAppointment)
		if err != nil {
			return fmt.Errorf("%w: %q: appointment %d: %w", ErrWrite, path, a.AppointmentID, err)
		}

		patientIDField.Append(a.PatientID)
		appointmentIDField.Append(a.AppointmentID)
		err = genderField.AppendString(a.Gender)
		if err != nil {
			return fmt.Errorf("%w: appending gender: %w", ErrWrite, err)
		}
		scheduledDayField.Append(arrow.Date32FromTime(a.ScheduledDay))
		appointmentDayField.Append(arrow.Timestamp(a.AppointmentDay.UnixMilli()))
		ageField.Append(age)
		err = neighbourhoodField.AppendString(a.Neighbourhood)
		if err != nil {
			return fmt.Errorf("%w: appending neighbourhood: %w", ErrWrite, err)
		}
		scholarshipField.Append(a.Scholarship)
		hypertensionField.Append(a.Hypertension)
		diabetesField.Append(a.Diabetes)
		alcoholismField.Append(a.Alcoholism)
		handicapField.Append(handicap)
		smsReceivedField.Append(a.SMSReceived)
		showedField.Append(a.Showed)
		sickField.Append(a.Sick)
		daysField.Append(days)
		err = binsField.AppendString(a.DaysToAppointmentBin.String())
		if err != nil {
			return fmt.Errorf("%w: appending lead-time bin: %w", ErrWrite, err)
		}
	}

	record := recordBuilder.NewRecord()
	defer record.Release()

	return writeRecord(path, schema, record)
}

// WriteProportions writes each grouping as rows of the tables.Proportions
// schema, one per group and value of showed.
func WriteProportions(path string, groupings []appointments.Grouping) error {
	allocator := memory.NewGoAllocator()
	recordBuilder := array.NewRecordBuilder(allocator, tables.Proportions)
	defer recordBuilder.Release()

	fields := recordBuilder.Fields()
	groupByField := fields[0].(*array.BinaryDictionaryBuilder)
	groupKeyField := fields[1].(*array.StringBuilder)
	showedField := fields[2].(*array.Uint8Builder)
	countField := fields[3].(*array.Int64Builder)
	totalField := fields[4].(*array.Int64Builder)
	proportionField := fields[5].(*array.Float64Builder)

	for _, grouping := range groupings {
		name := grouping.Name()
		for _, group := range grouping.Groups {
			for showed := range 2 {
				err := groupByField.AppendString(name)
				if err != nil {
					return fmt.Errorf("%w: appending group_by: %w", ErrWrite, err)
				}
				groupKeyField.Append(joinKey(group.Key))
				showedField.Append(uint8(showed))
				countField.Append(int64(group.Counts[showed]))
				totalField.Append(int64(group.Total))
				proportionField.Append(group.Proportions[showed])
			}
		}
	}

	record := recordBuilder.NewRecord()
	defer record.Release()

	return writeRecord(path, tables.Proportions, record)
}

// ReadAppointments reads a table written by WriteAppointments.
func ReadAppointments(ctx context.Context, path string) (*appointments.Table, FileInfo, error) {
	var info FileInfo

	fileReader, err := file.OpenParquetFile(path, true)
	if err != nil {
		return nil, info, fmt.Errorf("%w: opening parquet file %q: %w", ErrRead, path, err)
	}
	defer func() {
		err := fileReader.Close()
		if err != nil {
			fmt.Println(err)
		}
	}()

	reader, err := pqarrow.NewFileReader(fileReader,
		pqarrow.ArrowReadProperties{Parallel: true, BatchSize: batchSize},
		memory.NewGoAllocator(),
	)
	if err != nil {
		return nil, info, fmt.Errorf("%w: creating pqarrow FileReader: %w", ErrRead, err)
	}

	schema, err := reader.Schema()
	if err != nil {
		return nil, info, fmt.Errorf("%w: getting schema: %w", ErrRead, err)
	}
	info.RunID, _ = tables.Lookup(schema, tables.RunIDKey)
	info.Fingerprint, _ = tables.Lookup(schema, tables.FingerprintKey)
	for key, count := range map[string]*int{
		tables.InputRowsKey:     &info.InputRows,
		tables.RejectedRowsKey:  &info.RejectedRows,
		tables.DuplicateRowsKey: &info.DuplicateRows,
	} {
		value, ok := tables.Lookup(schema, key)
		if !ok {
			continue
		}
		*count, err = strconv.Atoi(value)
		if err != nil {
			return nil, info, fmt.Errorf("%w: %q: metadata %s: %w", ErrRead, path, key, err)
		}
	}

	columns := make([]int, len(appointments.CleanColumns))
	for i, c := range appointments.CleanColumns {
		indices := schema.FieldIndices(string(c))
		if len(indices) != 1 {
			return nil, info, fmt.Errorf("%w: %q: %w: want one column %s, found %d",
				ErrRead, path, appointments.ErrSchema, c, len(indices))
		}
		columns[i] = indices[0]
	}

	recordReader, err := reader.GetRecordReader(ctx, columns, nil)
	if err != nil {
		return nil, info, fmt.Errorf("%w: getting record reader: %w", ErrRead, err)
	}
	defer recordReader.Release()

	table := &appointments.Table{}
	var record arrow.Record
	for record, err = recordReader.Read(); err == nil; record, err = recordReader.Read() {
		for i := 0; i < int(record.NumRows()); i++ {
			a, err := readAppointment(record, i)
			if err != nil {
				return nil, info, fmt.Errorf("%w: %q: row %d: %w", ErrRead, path, len(table.Records), err)
			}
			table.Records = append(table.Records, a)
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, info, fmt.Errorf("%w: reading records: %w", ErrRead, err)
	}

	return table, info, nil
}

// readAppointment reads row i of a record whose columns are in
// appointments.CleanColumns order.
func readAppointment(record arrow.Record, i int) (appointments.Appointment, error) {
	c := cells{record: record, row: i}
	a := appointments.Appointment{
		PatientID:         c.text(0),
		AppointmentID:     c.integer(1),
		Gender:            c.text(2),
		ScheduledDay:      c.instant(3),
		AppointmentDay:    c.instant(4),
		Age:               int(c.integer(5)),
		Neighbourhood:     c.text(6),
		Scholarship:       c.boolean(7),
		Hypertension:      c.boolean(8),
		Diabetes:          c.boolean(9),
		Alcoholism:        c.boolean(10),
		Handicap:          int(c.integer(11)),
		SMSReceived:       c.boolean(12),
		Showed:            c.boolean(13),
		Sick:              c.boolean(14),
		DaysToAppointment: int(c.integer(15)),
	}
	bin, err := appointments.ParseBin(c.text(16))
	if err != nil && c.err == nil {
		c.err = err
	}
	a.DaysToAppointmentBin = bin
	return a, c.err
}
