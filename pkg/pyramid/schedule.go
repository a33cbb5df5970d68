package pyramid

import (
	"fmt"
)

// Schedule holds one row of shrink factors per level, coarsest level first.
type Schedule [][]int

// DefaultSchedule halves the factors at every level, starting from
// 2^(levels-1) on every axis and ending at 1.
func DefaultSchedule(levels, axes int) Schedule {
	if levels < 1 {
		return nil
	}
	start := make([]int, axes)
	for i := range start {
		start[i] = 1 << (levels - 1)
	}
	return ScheduleFromStartingFactors(levels, start)
}

// ScheduleFromStartingFactors uses start for level 0 and halves each factor
// per level after that, never going below 1.
func ScheduleFromStartingFactors(levels int, start []int) Schedule {
	if levels < 1 {
		return nil
	}
	s := make(Schedule, levels)
	for level := range s {
		s[level] = make([]int, len(start))
		for a, f := range start {
			if level > 0 {
				f = s[level-1][a] / 2
			}
			s[level][a] = max(f, 1)
		}
	}
	return s
}

// Levels is the number of rows.
func (s Schedule) Levels() int { return len(s) }

// Axes is the row length, or 0 for an empty schedule.
func (s Schedule) Axes() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for i, row := range s {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// IsDownwardDivisible reports whether every factor divides evenly by the
// factor of the next finer level.
func (s Schedule) IsDownwardDivisible() bool {
	for level := 0; level+1 < len(s); level++ {
		for a, f := range s[level] {
			if f%s[level+1][a] != 0 {
				return false
			}
		}
	}
	return true
}

// validate reports shape problems that cannot be corrected.
func (s Schedule) validate(axes int) error {
	if len(s) == 0 {
		return fmt.Errorf("schedule has no levels")
	}
	for level, row := range s {
		if len(row) != axes {
			return fmt.Errorf("schedule level %d has %d factors, want %d", level, len(row), axes)
		}
	}
	return nil
}

// corrected returns a copy of s where each factor is at least 1 and no
// larger than the factor of the previous level, along with one message per
// changed factor.
func (s Schedule) corrected() (Schedule, []string) {
	out := s.Clone()
	var changes []string
	for level, row := range out {
		for a, f := range row {
			want := f
			if level > 0 && want > out[level-1][a] {
				want = out[level-1][a]
			}
			if want < 1 {
				want = 1
			}
			if want != f {
				changes = append(changes, fmt.Sprintf("level %d axis %d factor %d changed to %d", level, a, f, want))
				row[a] = want
			}
		}
	}
	return out, changes
}
