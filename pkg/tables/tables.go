package tables

import "github.com/apache/arrow/go/v18/arrow"

const (
	AppointmentsName = "appointments"
	ProportionsName  = "proportions"

	ParquetExt = ".parquet"
	XLSXExt    = ".xlsx"
)

// File metadata keys written alongside the Parquet schema.
const (
	RunIDKey         = "run_id"
	FingerprintKey   = "input_blake2b"
	InputRowsKey     = "input_rows"
	RejectedRowsKey  = "rejected_rows"
	DuplicateRowsKey = "duplicate_rows"
)

func dictionaryOf(indexType arrow.DataType, ordered bool) *arrow.DictionaryType {
	return &arrow.DictionaryType{
		IndexType: indexType,
		ValueType: arrow.BinaryTypes.String,
		Ordered:   ordered,
	}
}
