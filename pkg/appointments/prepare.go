package appointments

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	noShowYes = "Yes"
	noShowNo  = "No"
)

// Rejection records a row removed by validation.
type Rejection struct {
	// Row is the source line of the rejected record.
	Row           int
	AppointmentID int64
	Age           int
	Reason        string
}

// Report summarizes a Prepare run for data-quality review.
type Report struct {
	RunID       string
	Fingerprint string

	InputRows     int
	OutputRows    int
	DuplicateRows int

	Rejected []Rejection

	// Unclassified lists the appointments whose lead time matched no bin.
	Unclassified []int64

	Showed int
	NoShow int
}

type options struct {
	logger *slog.Logger
	runID  string
}

type Option func(*options)

// WithLogger sets the logger stage results and data-quality findings are
// written to. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRunID overrides the randomly generated run identifier.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// Prepare normalizes the schema of raw, coerces its cells, drops rows with
// negative ages, recodes the no-show flag into Showed and derives the Sick
// and lead-time columns.
func Prepare(raw *RawTable, opts ...Option) (*Table, *Report, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	logger := o.logger.With("run_id", o.runID)

	report := &Report{
		RunID:       o.runID,
		Fingerprint: raw.Fingerprint,
		InputRows:   len(raw.Rows),
	}

	normalized, err := NormalizeSchema(raw)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("normalized schema", "columns", normalized.Columns)

	report.DuplicateRows = DuplicateRows(normalized)
	if report.DuplicateRows > 0 {
		logger.Warn("duplicate rows in input", "count", report.DuplicateRows)
	}

	coerced, err := Coerce(normalized)
	if err != nil {
		return nil, nil, err
	}

	valid, rejected := DropInvalidAge(coerced)
	for i := range rejected {
		rejected[i].Row = normalized.line(rejected[i].Row)
		logger.Warn("dropping row",
			"row", rejected[i].Row,
			"appointment_id", rejected[i].AppointmentID,
			"age", rejected[i].Age,
			"reason", rejected[i].Reason)
	}
	report.Rejected = rejected

	table := DeriveLeadTime(DeriveSick(valid))
	for i := range table.Records {
		a := &table.Records[i]
		if a.DaysToAppointmentBin == Unclassified {
			report.Unclassified = append(report.Unclassified, a.AppointmentID)
			logger.Warn("lead time matches no bin",
				"appointment_id", a.AppointmentID,
				"days_to_appointment", a.DaysToAppointment)
		}
	}

	report.OutputRows = table.Len()
	report.NoShow, report.Showed = ShowedCounts(table)

	logger.Info("prepared appointments",
		"input_rows", report.InputRows,
		"output_rows", report.OutputRows,
		"rejected", len(report.Rejected),
		"duplicates", report.DuplicateRows,
		"unclassified", len(report.Unclassified))

	return table, report, nil
}

// NormalizeSchema renames the columns of raw to their canonical names,
// preserving order. Derived columns of an already prepared table are dropped
// to be recomputed. Fails with ErrSchema if a source column is missing,
// repeated or unrecognized.
func NormalizeSchema(raw *RawTable) (*RawTable, error) {
	var keep []int
	var columns []string
	found := make(map[Column]string)

	for i, name := range raw.Columns {
		column, err := ParseColumn(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchema, err)
		}
		recoded := column == Showed
		if recoded {
			// A prepared table carries the recoded target in place of no_show.
			if prev, ok := found[NoShow]; ok {
				return nil, fmt.Errorf("%w: both %q and %q present", ErrSchema, prev, name)
			}
			column = NoShow
		}
		if prev, ok := found[column]; ok {
			return nil, fmt.Errorf("%w: %q and %q both name %s", ErrSchema, prev, name, column)
		}
		found[column] = name

		if isDerived(column) {
			continue
		}
		keep = append(keep, i)
		if recoded {
			columns = append(columns, string(Showed))
		} else {
			columns = append(columns, string(column))
		}
	}

	var missing []string
	for _, c := range SourceColumns {
		if _, ok := found[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}

	normalized := &RawTable{
		Columns:     columns,
		Rows:        make([][]string, len(raw.Rows)),
		Lines:       raw.Lines,
		Fingerprint: raw.Fingerprint,
	}
	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d",
				ErrSchema, raw.line(i), len(row), len(raw.Columns))
		}
		out := make([]string, len(keep))
		for j, k := range keep {
			out[j] = row[k]
		}
		normalized.Rows[i] = out
	}
	return normalized, nil
}

// Coerce parses each row of a normalized table into an Appointment.
// ScheduledDay is truncated to midnight UTC and the target is recoded with
// RecodeShowed. Derived fields are left zero.
func Coerce(raw *RawTable) (*Table, error) {
	index := make(map[Column]int, len(raw.Columns))
	target := NoShow
	for i, name := range raw.Columns {
		index[Column(name)] = i
		if Column(name) == Showed {
			target = Showed
			index[NoShow] = i
		}
	}
	for _, c := range SourceColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrSchema, c)
		}
	}

	table := &Table{Records: make([]Appointment, len(raw.Rows))}
	for i, row := range raw.Rows {
		p := rowParser{row: row, index: index, line: raw.line(i)}
		a := &table.Records[i]

		a.PatientID = p.text(PatientID)
		a.AppointmentID = p.id(AppointmentID)
		a.Gender = p.gender()
		a.ScheduledDay = midnight(p.date(ScheduledDay))
		a.AppointmentDay = p.date(AppointmentDay).UTC()
		a.Age = p.number(Age)
		a.Neighbourhood = p.text(Neighbourhood)
		a.Scholarship = p.boolean(Scholarship)
		a.Hypertension = p.boolean(Hypertension)
		a.Diabetes = p.boolean(Diabetes)
		a.Alcoholism = p.boolean(Alcoholism)
		a.Handicap = p.number(Handicap)
		a.SMSReceived = p.boolean(SMSReceived)
		if target == Showed {
			a.Showed = p.boolean(NoShow)
		} else {
			a.Showed = p.recode()
		}

		if p.err != nil {
			if target == Showed && p.err.Column == NoShow {
				p.err.Column = Showed
			}
			return nil, p.err
		}
	}
	return table, nil
}

// RecodeShowed converts the source's no-show flag into attendance:
// "Yes" (did not show) is false and "No" (showed) is true.
func RecodeShowed(noShow string) (bool, error) {
	switch strings.TrimSpace(noShow) {
	case noShowYes:
		return false, nil
	case noShowNo:
		return true, nil
	default:
		return false, fmt.Errorf("want %q or %q", noShowYes, noShowNo)
	}
}

// DropInvalidAge removes appointments with a negative age. The Row of each
// Rejection is the index of the appointment in t.
func DropInvalidAge(t *Table) (*Table, []Rejection) {
	valid := &Table{Records: make([]Appointment, 0, len(t.Records))}
	var rejected []Rejection
	for i, a := range t.Records {
		if a.Age < 0 {
			rejected = append(rejected, Rejection{
				Row:           i,
				AppointmentID: a.AppointmentID,
				Age:           a.Age,
				Reason:        "negative age",
			})
			continue
		}
		valid.Records = append(valid.Records, a)
	}
	return valid, rejected
}

// DeriveSick marks appointments of patients with a handicap, hypertension
// or diabetes.
func DeriveSick(t *Table) *Table {
	out := t.clone()
	for i := range out.Records {
		a := &out.Records[i]
		a.Sick = a.Handicap == 1 || a.Hypertension || a.Diabetes
	}
	return out
}

// DeriveLeadTime computes the days between scheduling and appointment and
// assigns each appointment its lead-time bin.
func DeriveLeadTime(t *Table) *Table {
	out := t.clone()
	for i := range out.Records {
		a := &out.Records[i]
		a.DaysToAppointment = LeadTimeDays(a.ScheduledDay, a.AppointmentDay)
		a.DaysToAppointmentBin = BinFor(a.DaysToAppointment)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

var errTimeFormat = errors.New("unrecognized date format")

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errTimeFormat
}

// rowParser reads typed cells from a row, keeping the first failure.
type rowParser struct {
	row   []string
	index map[Column]int
	line  int
	err   *ParseError
}

func (p *rowParser) cell(c Column) string {
	return strings.TrimSpace(p.row[p.index[c]])
}

func (p *rowParser) fail(c Column, err error) {
	if p.err == nil {
		p.err = &ParseError{Row: p.line, Column: c, Value: p.cell(c), Err: err}
	}
}

func (p *rowParser) text(c Column) string {
	return p.cell(c)
}

func (p *rowParser) id(c Column) int64 {
	v, err := strconv.ParseInt(p.cell(c), 10, 64)
	if err != nil {
		p.fail(c, err)
	}
	return v
}

func (p *rowParser) number(c Column) int {
	v, err := strconv.Atoi(p.cell(c))
	if err != nil {
		p.fail(c, err)
	}
	return v
}

func (p *rowParser) boolean(c Column) bool {
	v, err := strconv.ParseBool(p.cell(c))
	if err != nil {
		p.fail(c, err)
	}
	return v
}

func (p *rowParser) date(c Column) time.Time {
	v, err := parseTime(p.cell(c))
	if err != nil {
		p.fail(c, err)
	}
	return v
}

func (p *rowParser) gender() string {
	v := strings.ToUpper(p.cell(Gender))
	if v != "M" && v != "F" {
		p.fail(Gender, errors.New(`want "M" or "F"`))
	}
	return v
}

func (p *rowParser) recode() bool {
	v, err := RecodeShowed(p.cell(NoShow))
	if err != nil {
		p.fail(NoShow, err)
	}
	return v
}
