package appointments

import (
	"fmt"
	"strings"
	"unicode"
)

// Column is a canonical, lower-case and underscore-separated column name.
type Column string

const (
	PatientID      Column = "patient_id"
	AppointmentID  Column = "appointment_id"
	Gender         Column = "gender"
	ScheduledDay   Column = "scheduled_day"
	AppointmentDay Column = "appointment_day"
	Age            Column = "age"
	Neighbourhood  Column = "neighbourhood"
	Scholarship    Column = "scholarship"
	Hypertension   Column = "hypertension"
	Diabetes       Column = "diabetes"
	Alcoholism     Column = "alcoholism"
	Handicap       Column = "handicap"
	SMSReceived    Column = "sms_received"
	NoShow         Column = "no_show"

	Showed                Column = "showed"
	Sick                  Column = "sick"
	DaysToAppointment     Column = "days_to_appointment"
	DaysToAppointmentBins Column = "days_to_appointment_bins"
)

// SourceColumns are the fourteen columns of the source dataset in file order.
var SourceColumns = []Column{
	PatientID, AppointmentID, Gender, ScheduledDay, AppointmentDay, Age,
	Neighbourhood, Scholarship, Hypertension, Diabetes, Alcoholism, Handicap,
	SMSReceived, NoShow,
}

// CleanColumns are the columns of a prepared table, as rendered by Table.Raw.
var CleanColumns = []Column{
	PatientID, AppointmentID, Gender, ScheduledDay, AppointmentDay, Age,
	Neighbourhood, Scholarship, Hypertension, Diabetes, Alcoholism, Handicap,
	SMSReceived, Showed, Sick, DaysToAppointment, DaysToAppointmentBins,
}

// aliases maps header names stripped of case, spacing and punctuation to
// canonical columns. The source dataset misspells several of them.
var aliases = map[string]Column{
	"patientid":             PatientID,
	"appointmentid":         AppointmentID,
	"gender":                Gender,
	"scheduledday":          ScheduledDay,
	"appointmentday":        AppointmentDay,
	"age":                   Age,
	"neighbourhood":         Neighbourhood,
	"neighborhood":          Neighbourhood,
	"scholarship":           Scholarship,
	"hypertension":          Hypertension,
	"hipertension":          Hypertension,
	"diabetes":              Diabetes,
	"alcoholism":            Alcoholism,
	"handicap":              Handicap,
	"handcap":               Handicap,
	"smsreceived":           SMSReceived,
	"noshow":                NoShow,
	"showed":                Showed,
	"sick":                  Sick,
	"daystoappointment":     DaysToAppointment,
	"daystoappointmentbins": DaysToAppointmentBins,
}

func headerKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseColumn resolves a header or user-supplied column name to its canonical
// column.
func ParseColumn(name string) (Column, error) {
	column, ok := aliases[headerKey(strings.TrimPrefix(name, "\ufeff"))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return column, nil
}

// ParseColumns resolves each of names with ParseColumn.
func ParseColumns(names []string) ([]Column, error) {
	columns := make([]Column, len(names))
	for i, name := range names {
		column, err := ParseColumn(name)
		if err != nil {
			return nil, err
		}
		columns[i] = column
	}
	return columns, nil
}

func isDerived(c Column) bool {
	switch c {
	case Sick, DaysToAppointment, DaysToAppointmentBins:
		return true
	default:
		return false
	}
}
