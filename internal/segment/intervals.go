package segment

import "fmt"

// Interval is a column span [Start, Stop) of contiguous ink.
type Interval struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Width returns Stop - Start.
func (iv Interval) Width() int { return iv.Stop - iv.Start }

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.Stop)
}

// FindIntervals returns the ink intervals of profile in left-to-right order.
//
// A column is ink when its value is strictly above ink. Each interval runs
// from a rising edge to the following falling edge. An interval that opens at
// column 0 or never closes is not reported.
func FindIntervals(profile []float64, ink float64) []Interval {
	intervals := make([]Interval, 0)
	first := 0
	last := false
	for x, v := range profile {
		cur := v > ink
		if cur != last {
			if !last {
				first = x
			} else if first != 0 {
				intervals = append(intervals, Interval{Start: first, Stop: x})
				first = 0
			}
		}
		last = cur
	}
	return intervals
}

// FilterNarrow drops intervals narrower than minWidth columns. The input
// slice is not modified.
func FilterNarrow(intervals []Interval, minWidth int) []Interval {
	kept := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Width() >= minWidth {
			kept = append(kept, iv)
		}
	}
	return kept
}

// Extent returns the first ink run of profile: start is its rising edge and
// stop its falling edge, or len(profile) when the run reaches the end.
// ok is false when the profile holds no ink at all.
func Extent(profile []float64, ink float64) (start, stop int, ok bool) {
	stop = len(profile)
	last := false
	for x, v := range profile {
		cur := v > ink
		if cur != last {
			if !last {
				start = x
				ok = true
			} else {
				stop = x
				break
			}
		}
		last = cur
	}
	return start, stop, ok
}
