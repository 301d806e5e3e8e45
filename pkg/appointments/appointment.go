package appointments

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = time.RFC3339
)

// Appointment is one cleaned row of the dataset.
type Appointment struct {
	PatientID      string
	AppointmentID  int64
	Gender         string
	ScheduledDay   time.Time
	AppointmentDay time.Time
	Age            int
	Neighbourhood  string
	Scholarship    bool
	Hypertension   bool
	Diabetes       bool
	Alcoholism     bool
	// Handicap counts disabilities; the source encodes it as 0 through 4.
	Handicap    int
	SMSReceived bool

	// Showed is true when the patient attended, the inverse of the source's
	// no-show flag.
	Showed bool

	Sick                 bool
	DaysToAppointment    int
	DaysToAppointmentBin Bin
}

// Bin is an ordinal lead-time category.
type Bin uint8

const (
	// Unclassified holds lead times which match no threshold, such as an
	// appointment scheduled after the day it took place.
	Unclassified Bin = iota
	OneWeek
	TwoWeeks
	ThreeWeeks
	FourWeeks
	EightWeeks
	OverTwelveWeeks
)

var binLabels = [...]string{
	Unclassified:    "unclassified",
	OneWeek:         "1 Week",
	TwoWeeks:        "2 Weeks",
	ThreeWeeks:      "3 Weeks",
	FourWeeks:       "4 Weeks",
	EightWeeks:      "8 Weeks",
	OverTwelveWeeks: ">12 Weeks",
}

// Bins lists the classified bins in order.
var Bins = []Bin{OneWeek, TwoWeeks, ThreeWeeks, FourWeeks, EightWeeks, OverTwelveWeeks}

func (b Bin) String() string {
	if int(b) < len(binLabels) {
		return binLabels[b]
	}
	return "Bin(" + strconv.Itoa(int(b)) + ")"
}

// ParseBin is the inverse of Bin.String.
func ParseBin(label string) (Bin, error) {
	for i, l := range binLabels {
		if l == label {
			return Bin(i), nil
		}
	}
	return Unclassified, fmt.Errorf("unknown bin %q", label)
}

// BinFor assigns days to its lead-time bin. Thresholds are inclusive upper
// bounds: 7, 14, 21, 28 and 60 days. Negative lead times are Unclassified.
func BinFor(days int) Bin {
	switch {
	case days < 0:
		return Unclassified
	case days <= 7:
		return OneWeek
	case days <= 14:
		return TwoWeeks
	case days <= 21:
		return ThreeWeeks
	case days <= 28:
		return FourWeeks
	case days <= 60:
		return EightWeeks
	default:
		return OverTwelveWeeks
	}
}

const day = 24 * time.Hour

// LeadTimeDays is the number of whole days from scheduled to appointment,
// rounded towards negative infinity.
func LeadTimeDays(scheduled, appointment time.Time) int {
	d := appointment.Sub(scheduled)
	days := int(d / day)
	if d%day < 0 {
		days--
	}
	return days
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Table is an immutable set of appointments. Each preparation stage returns
// a new Table rather than modifying its input.
type Table struct {
	Records []Appointment
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (t *Table) clone() *Table {
	records := make([]Appointment, len(t.Records))
	copy(records, t.Records)
	return &Table{Records: records}
}

// Raw renders the table in canonical column form, including the derived
// columns, so it may be passed back through Prepare.
func (t *Table) Raw() *RawTable {
	raw := &RawTable{
		Columns: make([]string, len(CleanColumns)),
		Rows:    make([][]string, len(t.Records)),
	}
	for i, c := range CleanColumns {
		raw.Columns[i] = string(c)
	}
	for i := range t.Records {
		row := make([]string, len(CleanColumns))
		for j, c := range CleanColumns {
			row[j] = t.Records[i].value(c)
		}
		raw.Rows[i] = row
	}
	return raw
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// value renders the appointment's cell for column c.
func (a *Appointment) value(c Column) string {
	switch c {
	case PatientID:
		return a.PatientID
	case AppointmentID:
		return strconv.FormatInt(a.AppointmentID, 10)
	case Gender:
		return a.Gender
	case ScheduledDay:
		return a.ScheduledDay.Format(DateLayout)
	case AppointmentDay:
		return a.AppointmentDay.Format(TimestampLayout)
	case Age:
		return strconv.Itoa(a.Age)
	case Neighbourhood:
		return a.Neighbourhood
	case Scholarship:
		return flag(a.Scholarship)
	case Hypertension:
		return flag(a.Hypertension)
	case Diabetes:
		return flag(a.Diabetes)
	case Alcoholism:
		return flag(a.Alcoholism)
	case Handicap:
		return strconv.Itoa(a.Handicap)
	case SMSReceived:
		return flag(a.SMSReceived)
	case Showed:
		return flag(a.Showed)
	case NoShow:
		if a.Showed {
			return noShowNo
		}
		return noShowYes
	case Sick:
		return flag(a.Sick)
	case DaysToAppointment:
		return strconv.Itoa(a.DaysToAppointment)
	case DaysToAppointmentBins:
		return a.DaysToAppointmentBin.String()
	default:
		return ""
	}
}
