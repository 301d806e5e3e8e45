package fields

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MaxEnum is the largest number of unique values to track before not trying to
// interpret the field as an enum.
const MaxEnum = 20

// Field summarizes the values seen in one column. Adding a value of a
// different kind returns a Field able to hold both, so a column of numbers
// with a stray word becomes a StringField.
type Field interface {
	Add(obj any) (Field, error)
	String() string
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Value interprets a raw cell: empty cells are nil, and cells which parse as
// a boolean word, number or date are returned as bool, float64 or time.Time.
// Anything else is returned as a string.
func Value(cell string) any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	return cell
}

// EmptyField represents a field which is never filled in.
// Adding any object to a EmptyField returns a non-EmptyField.
type EmptyField struct {
	Nulls int
}

// Add turns the EmptyField into an appropriate field based on the passed type.
func (nf *EmptyField) Add(obj any) (Field, error) {
	var f Field
	switch obj.(type) {
	case nil:
		nf.Nulls++
		return nf, nil
	case bool:
		f = &BoolField{Nulls: nf.Nulls}
	case float64:
		f = &NumberField{Nulls: nf.Nulls, Seen: make(map[float64]int)}
	case time.Time:
		f = &DateField{Nulls: nf.Nulls}
	case string:
		f = &StringField{Nulls: nf.Nulls, Seen: make(map[string]int)}
	default:
		return nil, fmt.Errorf("unknown type %T added to %T", obj, nf)
	}
	return f.Add(obj)
}

func (nf *EmptyField) String() string {
	return fmt.Sprintf("empty;nulls:%d", nf.Nulls)
}

// BoolField indicates the field only ever holds "true" or "false" values.
type BoolField struct {
	True  int
	False int
	Nulls int
}

func (f *BoolField) Add(obj any) (Field, error) {
	switch o := obj.(type) {
	case nil:
		f.Nulls++
		return f, nil
	case bool:
		if o {
			f.True++
		} else {
			f.False++
		}
		return f, nil
	default:
		s := &StringField{Nulls: f.Nulls, Seen: make(map[string]int)}
		s.addN("true", f.True)
		s.addN("false", f.False)
		return s.Add(obj)
	}
}

func (f *BoolField) String() string {
	return fmt.Sprintf("bool;true:%d;false:%d;nulls:%d", f.True, f.False, f.Nulls)
}

// A NumberField only holds numbers. Keeps track of the properties of the
// numbers passed in to determine the types of numbers used.
type NumberField struct {
	// Integral tracks if all instances of this field are integers.
	Integral bool

	// Min and Max allow determining whether the number is unsigned, or, for
	// integers, the smallest type which can hold all seen values.
	Min, Max float64

	Count int
	Nulls int

	// Seen tracks the unique numbers passed to this field.
	// Used for detecting if this is an enumerated field where only a few
	// unique values are passed.
	// Stops collecting values after it contains more than MaxEnum entries.
	Seen map[float64]int
}

func (f *NumberField) Add(obj any) (Field, error) {
	switch o := obj.(type) {
	case nil:
		f.Nulls++
		return f, nil
	case float64:
		if f.Count > 0 {
			f.Integral = f.Integral && isIntegral(o)
			f.Min = math.Min(f.Min, o)
			f.Max = math.Max(f.Max, o)
		} else {
			f.Integral = isIntegral(o)
			f.Min = o
			f.Max = o
		}
		f.Count++

		if len(f.Seen) <= MaxEnum {
			f.Seen[o]++
		}
		return f, nil
	default:
		s := &StringField{Nulls: f.Nulls, Seen: make(map[string]int)}
		if len(f.Seen) <= MaxEnum {
			for k, v := range f.Seen {
				s.addN(strconv.FormatFloat(k, 'f', -1, 64), v)
			}
		} else {
			s.Distinct = MaxEnum + 1
		}
		return s.Add(obj)
	}
}

func isIntegral(f float64) bool {
	return math.Round(f) == f
}

func (f *NumberField) String() string {
	result := strings.Builder{}
	if f.Integral {
		if f.Min < 0 {
			if f.Min >= math.MinInt8 && f.Max <= math.MaxInt8 {
				result.WriteString("int8")
			} else if f.Min >= math.MinInt16 && f.Max <= math.MaxInt16 {
				result.WriteString("int16")
			} else if f.Min >= math.MinInt32 && f.Max <= math.MaxInt32 {
				result.WriteString("int32")
			} else {
				result.WriteString("int64")
			}
		} else {
			if f.Max <= math.MaxUint8 {
				result.WriteString("uint8")
			} else if f.Max <= math.MaxUint16 {
				result.WriteString("uint16")
			} else if f.Max <= math.MaxUint32 {
				result.WriteString("uint32")
			} else {
				result.WriteString("uint64")
			}
		}
		result.WriteString(fmt.Sprintf(";%d;%d", int64(f.Min), int64(f.Max)))
	} else {
		result.WriteString(fmt.Sprintf("float64;%g;%g", f.Min, f.Max))
	}
	result.WriteString(fmt.Sprintf(";nulls:%d;", f.Nulls))

	if len(f.Seen) <= MaxEnum {
		keys := make([]float64, 0, len(f.Seen))
		for k := range f.Seen {
			keys = append(keys, k)
		}
		sort.Float64s(keys)
		for _, k := range keys {
			result.WriteString(fmt.Sprintf("%s:%d;", strconv.FormatFloat(k, 'f', -1, 64), f.Seen[k]))
		}
	}

	return result.String()
}

// DateField holds dates and timestamps, tracking their range and whether any
// carry a time of day.
type DateField struct {
	Min, Max  time.Time
	TimeOfDay bool
	Count     int
	Nulls     int
}

func (f *DateField) Add(obj any) (Field, error) {
	switch o := obj.(type) {
	case nil:
		f.Nulls++
		return f, nil
	case time.Time:
		if f.Count == 0 || o.Before(f.Min) {
			f.Min = o
		}
		if f.Count == 0 || o.After(f.Max) {
			f.Max = o
		}
		h, m, s := o.Clock()
		f.TimeOfDay = f.TimeOfDay || h != 0 || m != 0 || s != 0
		f.Count++
		return f, nil
	default:
		s := &StringField{Nulls: f.Nulls, Seen: make(map[string]int), Distinct: MaxEnum + 1}
		return s.Add(obj)
	}
}

func (f *DateField) String() string {
	kind := "date"
	if f.TimeOfDay {
		kind = "timestamp"
	}
	return fmt.Sprintf("%s;%s;%s;nulls:%d", kind,
		f.Min.Format(time.RFC3339), f.Max.Format(time.RFC3339), f.Nulls)
}

// A StringField holds free text.
type StringField struct {
	// Seen attempts to determine if the field is actually an enum with a small
	// number of unique values.
	Seen map[string]int

	// Distinct is set above MaxEnum once too many values were seen to track.
	Distinct int
	Nulls    int
}

func (f *StringField) addN(s string, n int) {
	if n == 0 {
		return
	}
	if f.Distinct > MaxEnum {
		return
	}
	if _, ok := f.Seen[s]; !ok {
		f.Distinct++
		if f.Distinct > MaxEnum {
			f.Seen = nil
			return
		}
	}
	f.Seen[s] += n
}

func (f *StringField) Add(obj any) (Field, error) {
	switch o := obj.(type) {
	case nil:
		f.Nulls++
	case string:
		f.addN(o, 1)
	case bool:
		f.addN(strconv.FormatBool(o), 1)
	case float64:
		f.addN(strconv.FormatFloat(o, 'f', -1, 64), 1)
	case time.Time:
		f.addN(o.Format(time.RFC3339), 1)
	default:
		return nil, fmt.Errorf("unknown type %T added to %T", o, f)
	}
	return f, nil
}

func (f *StringField) String() string {
	result := strings.Builder{}
	if f.Distinct <= MaxEnum {
		result.WriteString(fmt.Sprintf("enum;%d;nulls:%d;", len(f.Seen), f.Nulls))
		keys := make([]string, 0, len(f.Seen))
		for k := range f.Seen {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			result.WriteString(fmt.Sprintf("%s:%d;", k, f.Seen[k]))
		}
	} else {
		result.WriteString(fmt.Sprintf("string;nulls:%d;", f.Nulls))
	}

	return result.String()
}

// Profile summarizes each column of a table of raw cells, in column order.
func Profile(columns []string, rows [][]string) ([]Field, error) {
	profile := make([]Field, len(columns))
	for i := range profile {
		profile[i] = &EmptyField{}
	}

	for r, row := range rows {
		for i := range columns {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			f, err := profile[i].Add(Value(cell))
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, columns[i], err)
			}
			profile[i] = f
		}
	}
	return profile, nil
}
