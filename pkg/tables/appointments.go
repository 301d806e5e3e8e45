package tables

import "github.com/apache/arrow/go/v18/arrow"

// Appointments is the schema of the prepared appointment table. Field order
// matches appointments.CleanColumns.
var Appointments = arrow.NewSchema([]arrow.Field{
	{Name: "patient_id",
		Type:     arrow.BinaryTypes.String,
		Metadata: Comment("Identifier of the patient, as written in the source dataset").Build()},
	{Name: "appointment_id",
		Type:     arrow.PrimitiveTypes.Int64,
		Metadata: Comment("Identifier of the appointment").Build()},
	{Name: "gender",
		Type:     dictionaryOf(arrow.PrimitiveTypes.Uint8, false),
		Metadata: Comment("M for male, F for female").Build()},
	{Name: "scheduled_day",
		Type:     arrow.PrimitiveTypes.Date32,
		Metadata: Comment("The day the appointment was set up, without time of day").Build()},
	{Name: "appointment_day",
		Type:     arrow.FixedWidthTypes.Timestamp_ms,
		Metadata: Comment("The day of the appointment").Build()},
	{Name: "age",
		Type:     arrow.PrimitiveTypes.Int32,
		Metadata: Comment("Age of the patient in years, never negative").Build()},
	{Name: "neighbourhood",
		Type:     dictionaryOf(arrow.PrimitiveTypes.Uint16, false),
		Metadata: Comment("Location of the hospital").Build()},
	{Name: "scholarship",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient is enrolled in the Bolsa Família welfare program").Build()},
	{Name: "hypertension",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient has high blood pressure").Build()},
	{Name: "diabetes",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient has diabetes").Build()},
	{Name: "alcoholism",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient has alcoholism").Build()},
	{Name: "handicap",
		Type:     arrow.PrimitiveTypes.Int32,
		Metadata: Comment("Number of disabilities as recorded; the source uses 0 to 4").Build()},
	{Name: "sms_received",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient received a reminder SMS").Build()},
	{Name: "showed",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient attended; the inverse of the source no-show flag").Build()},
	{Name: "sick",
		Type:     arrow.FixedWidthTypes.Boolean,
		Metadata: Comment("Whether the patient has a handicap of 1, hypertension or diabetes").Build()},
	{Name: "days_to_appointment",
		Type:     arrow.PrimitiveTypes.Int32,
		Metadata: Comment("Whole days from scheduled_day to appointment_day; negative if scheduled afterwards").Build()},
	{Name: "days_to_appointment_bins",
		Type:     dictionaryOf(arrow.PrimitiveTypes.Uint8, true),
		Metadata: Comment("Lead-time category of days_to_appointment, or unclassified").Build()},
}, Comment("Medical appointments prepared for no-show analysis").BuildReference())
