package appointments

import (
	"math/rand"
	"strings"
)

// ShowedCounts returns the number of missed and attended appointments.
func ShowedCounts(t *Table) (noShow, showed int) {
	for i := range t.Records {
		if t.Records[i].Showed {
			showed++
		} else {
			noShow++
		}
	}
	return noShow, showed
}

// DuplicateRows counts rows identical in every cell to an earlier row.
func DuplicateRows(t *RawTable) int {
	seen := make(map[string]struct{}, len(t.Rows))
	duplicates := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

// AgeBucket counts appointments with Low <= Age < High.
type AgeBucket struct {
	Low, High int
	Showed    int
	NoShow    int
}

// AgeHistogram buckets appointment ages into ranges of width years, split by
// attendance. Buckets run from zero to the oldest age seen.
func AgeHistogram(t *Table, width int) []AgeBucket {
	if width <= 0 || t.Len() == 0 {
		return nil
	}

	oldest := 0
	for i := range t.Records {
		oldest = max(oldest, t.Records[i].Age)
	}

	buckets := make([]AgeBucket, oldest/width+1)
	for i := range buckets {
		buckets[i].Low = i * width
		buckets[i].High = (i + 1) * width
	}
	for i := range t.Records {
		a := &t.Records[i]
		if a.Age < 0 {
			continue
		}
		b := &buckets[a.Age/width]
		if a.Showed {
			b.Showed++
		} else {
			b.NoShow++
		}
	}
	return buckets
}

// Sample keeps each appointment with probability fraction, drawing from rng.
// A fraction of one or more returns every appointment.
func Sample(t *Table, fraction float64, rng *rand.Rand) *Table {
	if fraction >= 1 {
		return t.clone()
	}
	sampled := &Table{}
	for i := range t.Records {
		if rng.Float64() < fraction {
			sampled.Records = append(sampled.Records, t.Records[i])
		}
	}
	return sampled
}
