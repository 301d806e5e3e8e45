package tables

import "github.com/apache/arrow/go/v18/arrow"

// Proportions is the schema of grouped attendance proportions, one row per
// group and value of showed.
var Proportions = arrow.NewSchema([]arrow.Field{
	{Name: "group_by",
		Type:     dictionaryOf(arrow.PrimitiveTypes.Uint8, false),
		Metadata: Comment("Comma-separated columns the appointments were grouped by").Build()},
	{Name: "group_key",
		Type:     arrow.BinaryTypes.String,
		Metadata: Comment("Comma-separated values of the group_by columns").Build()},
	{Name: "showed",
		Type:     arrow.PrimitiveTypes.Uint8,
		Metadata: Comment("1 for attended appointments, 0 for no-shows").Build()},
	{Name: "count",
		Type:     arrow.PrimitiveTypes.Int64,
		Metadata: Comment("Appointments in the group with this value of showed").Build()},
	{Name: "group_total",
		Type:     arrow.PrimitiveTypes.Int64,
		Metadata: Comment("Appointments in the group").Build()},
	{Name: "proportion",
		Type:     arrow.PrimitiveTypes.Float64,
		Metadata: Comment("count divided by group_total").Build()},
}, Comment("Attendance proportions of grouped appointments").BuildReference())
