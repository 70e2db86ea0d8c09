package domain

import "strconv"

// outOfScale is the index assigned to numeric votes outside the fixed scale.
const outOfScale = 6

// maxScaleSpread is the largest distance, in scale steps, between the
// highest and lowest numeric votes before the result is flagged for
// re-estimation.
const maxScaleSpread = 3

// Summary is the aggregate outcome of a finished voting.
// Average, Max and Min are meaningful only when HasStats is true,
// i.e. at least one vote parsed as a number.
type Summary struct {
	Numeric  []int
	Passed   []Vote
	Average  float64
	Max      int
	Min      int
	HasStats bool
	Warn     bool
}

// Summarize partitions votes into numeric estimates and passes and
// computes average/max/min over the numeric part. Warn is set when the
// highest and lowest estimates are more than maxScaleSpread scale
// steps apart. An all-pass voting yields HasStats=false and never warns.
func Summarize(votes []Vote) Summary {
	var s Summary
	for _, v := range votes {
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			s.Passed = append(s.Passed, v)
			continue
		}
		s.Numeric = append(s.Numeric, n)
	}

	if len(s.Numeric) == 0 {
		return s
	}

	s.HasStats = true
	s.Max = s.Numeric[0]
	s.Min = s.Numeric[0]
	sum := 0
	for _, n := range s.Numeric {
		sum += n
		if n > s.Max {
			s.Max = n
		}
		if n < s.Min {
			s.Min = n
		}
	}
	s.Average = float64(sum) / float64(len(s.Numeric))
	s.Warn = scaleIndex(s.Max)-scaleIndex(s.Min) > maxScaleSpread

	return s
}

// scaleIndex maps a numeric vote to its position on the fixed scale.
// Values outside the scale map to the out-of-scale sentinel, so a vote
// of e.g. 100 still counts as maximally distant from a vote of 1.
func scaleIndex(value int) int {
	for i, s := range Scale {
		if s == strconv.Itoa(value) {
			return i
		}
	}
	return outOfScale
}
