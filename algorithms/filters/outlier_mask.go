package filters

import "strings"

// Criterion identifies the filtering stage that rejected an interval.
// Criteria combine as bit flags.
type Criterion uint8

const (
	CriterionRange Criterion = 1 << iota
	CriterionQuotient
	CriterionLowPass
	CriterionPoincare
)

// AllCriteria lists every criterion in pipeline order.
var AllCriteria = []Criterion{CriterionRange, CriterionQuotient, CriterionLowPass, CriterionPoincare}

func (c Criterion) String() string {
	var names []string
	for _, single := range AllCriteria {
		if c&single == 0 {
			continue
		}
		switch single {
		case CriterionRange:
			names = append(names, "range")
		case CriterionQuotient:
			names = append(names, "quotient")
		case CriterionLowPass:
			names = append(names, "lowpass")
		case CriterionPoincare:
			names = append(names, "poincare")
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// OutlierMask records, per index of the original raw series, which
// criteria flagged it. Indices never shift: removal happens once, after
// every stage has run.
type OutlierMask struct {
	Flags []Criterion `json:"flags"`
}

// NewOutlierMask creates an empty mask over n intervals
func NewOutlierMask(n int) OutlierMask {
	return OutlierMask{Flags: make([]Criterion, n)}
}

// Flag marks index i as rejected by c.
func (m OutlierMask) Flag(i int, c Criterion) {
	m.Flags[i] |= c
}

// Has reports whether any criterion flagged index i.
func (m OutlierMask) Has(i int) bool {
	return m.Flags[i] != 0
}

// Len returns the length of the underlying raw series.
func (m OutlierMask) Len() int {
	return len(m.Flags)
}

// Indices returns the flagged indices in ascending order.
func (m OutlierMask) Indices() []int {
	out := []int{}
	for i, f := range m.Flags {
		if f != 0 {
			out = append(out, i)
		}
	}
	return out
}

// Unflagged returns the surviving indices in ascending order.
func (m OutlierMask) Unflagged() []int {
	out := make([]int, 0, len(m.Flags))
	for i, f := range m.Flags {
		if f == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Count returns how many indices c flagged, regardless of other criteria.
func (m OutlierMask) Count(c Criterion) int {
	count := 0
	for _, f := range m.Flags {
		if f&c != 0 {
			count++
		}
	}
	return count
}

// ByCriterion breaks the mask down per criterion; an index flagged by two
// criteria appears under both.
func (m OutlierMask) ByCriterion() map[Criterion][]int {
	out := make(map[Criterion][]int, len(AllCriteria))
	for _, c := range AllCriteria {
		out[c] = []int{}
	}
	for i, f := range m.Flags {
		for _, c := range AllCriteria {
			if f&c != 0 {
				out[c] = append(out[c], i)
			}
		}
	}
	return out
}
