package appointments

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// GroupProportion holds attendance within one group. Counts and Proportions
// are indexed by showed: 0 for no-shows and 1 for attended appointments.
type GroupProportion struct {
	Key         []string
	Total       int
	Counts      [2]int
	Proportions [2]float64
}

// Grouping is the result of one Proportions call.
type Grouping struct {
	GroupBy []Column
	Groups  []GroupProportion
}

// Name joins the grouping columns, e.g. "gender" or "gender,sick".
func (g Grouping) Name() string {
	names := make([]string, len(g.GroupBy))
	for i, c := range g.GroupBy {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

type proportionOptions struct {
	levels [][]string
}

type ProportionOption func(*proportionOptions)

// WithLevels requests the given group keys in place of those present in the
// table. A requested key without any appointments is an ErrEmptyGroup.
func WithLevels(keys ...[]string) ProportionOption {
	return func(o *proportionOptions) {
		o.levels = append(o.levels, keys...)
	}
}

// BinLevels are the keys of every classified lead-time bin, for use with
// WithLevels when grouping by DaysToAppointmentBins alone.
func BinLevels() [][]string {
	levels := make([][]string, len(Bins))
	for i, b := range Bins {
		levels[i] = []string{b.String()}
	}
	return levels
}

// groupable columns and how they order their keys.
var groupable = map[Column]func(a, b string) int{
	PatientID:             strings.Compare,
	AppointmentID:         compareNumbers,
	Gender:                strings.Compare,
	ScheduledDay:          strings.Compare,
	AppointmentDay:        strings.Compare,
	Age:                   compareNumbers,
	Neighbourhood:         strings.Compare,
	Scholarship:           strings.Compare,
	Hypertension:          strings.Compare,
	Diabetes:              strings.Compare,
	Alcoholism:            strings.Compare,
	Handicap:              compareNumbers,
	SMSReceived:           strings.Compare,
	Sick:                  strings.Compare,
	DaysToAppointment:     compareNumbers,
	DaysToAppointmentBins: compareBins,
}

func compareNumbers(a, b string) int {
	x, errX := strconv.ParseInt(a, 10, 64)
	y, errY := strconv.ParseInt(b, 10, 64)
	if errX != nil || errY != nil {
		return strings.Compare(a, b)
	}
	return cmp.Compare(x, y)
}

func compareBins(a, b string) int {
	x, errX := ParseBin(a)
	y, errY := ParseBin(b)
	if errX != nil || errY != nil {
		return strings.Compare(a, b)
	}
	return cmp.Compare(x, y)
}

// Proportions counts the appointments in each group of groupBy crossed with
// Showed, and divides by the number of appointments in the group.
func Proportions(t *Table, groupBy []Column, opts ...ProportionOption) (Grouping, error) {
	var o proportionOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := Grouping{GroupBy: groupBy}
	if len(groupBy) == 0 {
		return result, fmt.Errorf("%w: no grouping columns", ErrUnknownColumn)
	}
	compares := make([]func(a, b string) int, len(groupBy))
	for i, c := range groupBy {
		compare, ok := groupable[c]
		if !ok {
			return result, fmt.Errorf("%w: cannot group by %q", ErrUnknownColumn, c)
		}
		compares[i] = compare
	}
	for _, level := range o.levels {
		if len(level) != len(groupBy) {
			return result, fmt.Errorf("level %q has %d values, want %d", level, len(level), len(groupBy))
		}
	}

	if t.Len() == 0 {
		return result, fmt.Errorf("%w: no appointments to group by %s", ErrEmptyGroup, result.Name())
	}

	counts := make(map[string]*GroupProportion)
	for i := range t.Records {
		a := &t.Records[i]
		key := make([]string, len(groupBy))
		for j, c := range groupBy {
			key[j] = a.value(c)
		}
		id := strings.Join(key, "\x00")
		g, ok := counts[id]
		if !ok {
			g = &GroupProportion{Key: key}
			counts[id] = g
		}
		if a.Showed {
			g.Counts[1]++
		} else {
			g.Counts[0]++
		}
		g.Total++
	}

	if len(o.levels) > 0 {
		for _, level := range o.levels {
			g, ok := counts[strings.Join(level, "\x00")]
			if !ok {
				return result, fmt.Errorf("%w: %s=%s", ErrEmptyGroup, result.Name(), strings.Join(level, ","))
			}
			result.Groups = append(result.Groups, *g)
		}
	} else {
		for _, g := range counts {
			result.Groups = append(result.Groups, *g)
		}
		slices.SortFunc(result.Groups, func(x, y GroupProportion) int {
			for i, compare := range compares {
				if c := compare(x.Key[i], y.Key[i]); c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if len(result.Groups) == 0 {
		return result, fmt.Errorf("%w: no appointments to group by %s", ErrEmptyGroup, result.Name())
	}

	for i := range result.Groups {
		g := &result.Groups[i]
		if g.Total == 0 {
			return result, fmt.Errorf("%w: %s=%s", ErrEmptyGroup, result.Name(), strings.Join(g.Key, ","))
		}
		g.Proportions[0] = float64(g.Counts[0]) / float64(g.Total)
		g.Proportions[1] = float64(g.Counts[1]) / float64(g.Total)
	}
	return result, nil
}
