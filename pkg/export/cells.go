package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// cells reads typed values from one row of a record, keeping the first
// failure. Parquet round trips may change physical types, such as
// dictionaries decoded to plain strings, so each accessor accepts every
// array type the column may come back as.
type cells struct {
	record arrow.Record
	row    int
	err    error
}

var errNull = errors.New("unexpected null")

func (c *cells) fail(col int, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("column %s: %w", c.record.ColumnName(col), err)
	}
}

func (c *cells) column(col int) arrow.Array {
	arr := c.record.Column(col)
	if arr.IsNull(c.row) {
		c.fail(col, errNull)
	}
	return arr
}

func stringValue(arr arrow.Array, i int) (string, error) {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Binary:
		return string(a.Value(i)), nil
	case *array.Dictionary:
		return stringValue(a.Dictionary(), a.GetValueIndex(i))
	default:
		return "", fmt.Errorf("unsupported string array %T", arr)
	}
}

func (c *cells) text(col int) string {
	v, err := stringValue(c.column(col), c.row)
	if err != nil {
		c.fail(col, err)
	}
	return v
}

func (c *cells) integer(col int) int64 {
	switch a := c.column(col).(type) {
	case *array.Int8:
		return int64(a.Value(c.row))
	case *array.Int16:
		return int64(a.Value(c.row))
	case *array.Int32:
		return int64(a.Value(c.row))
	case *array.Int64:
		return a.Value(c.row)
	case *array.Uint8:
		return int64(a.Value(c.row))
	case *array.Uint16:
		return int64(a.Value(c.row))
	case *array.Uint32:
		return int64(a.Value(c.row))
	default:
		c.fail(col, fmt.Errorf("unsupported integer array %T", a))
		return 0
	}
}

func (c *cells) boolean(col int) bool {
	a, ok := c.column(col).(*array.Boolean)
	if !ok {
		c.fail(col, fmt.Errorf("unsupported boolean array %T", c.record.Column(col)))
		return false
	}
	return a.Value(c.row)
}

func (c *cells) instant(col int) time.Time {
	switch a := c.column(col).(type) {
	case *array.Date32:
		return a.Value(c.row).ToTime()
	case *array.Date64:
		return a.Value(c.row).ToTime()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(c.row).ToTime(unit)
	default:
		c.fail(col, fmt.Errorf("unsupported time array %T", a))
		return time.Time{}
	}
}

func joinKey(key []string) string {
	return strings.Join(key, ",")
}
