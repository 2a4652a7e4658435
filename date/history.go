package date

import (
	"iter"
	"slices"
	"sort"
)

// History stores a chronological series of float64 values, each associated
// with a specific date. It ensures that dates are unique and the series is
// always sorted. The zero value is an empty, ready-to-use history.
type History struct {
	days   []Date
	values []float64
}

// Len returns the number of points in the history.
func (h *History) Len() int { return len(h.days) }

// First returns the earliest date and value in the history.
// If the history is empty, it returns zero values.
func (h *History) First() (day Date, value float64) {
	if len(h.days) == 0 {
		return Date{}, 0
	}
	return h.days[0], h.values[0]
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero values.
func (h *History) Latest() (day Date, value float64) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, 0
	}
	return h.days[last], h.values[last]
}

// Get returns the value recorded on the exact date, if any.
func (h *History) Get(on Date) (value float64, ok bool) {
	if i := slices.Index(h.days, on); i >= 0 {
		return h.values[i], true
	}
	return 0, false
}

// chronological is the sort.Interface keeping days and values aligned.
type chronological struct{ *History }

func (s chronological) Len() int           { return len(s.days) }
func (s chronological) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }
func (s chronological) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// Append adds a point to the history. An existing value at that date is
// overwritten; the latest data wins.
func (h *History) Append(on Date, v float64) *History {
	if i := slices.Index(h.days, on); i >= 0 {
		h.values[i] = v
		return h
	}
	h.days, h.values = append(h.days, on), append(h.values, v)
	sort.Sort(chronological{h})
	return h
}

// AppendAdd adds a point to the history. An existing value at that date is
// summed with the new one.
func (h *History) AppendAdd(on Date, v float64) *History {
	if i := slices.Index(h.days, on); i >= 0 {
		h.values[i] += v
		return h
	}
	return h.Append(on, v)
}

// Range returns the range spanning the history, or a zero range when empty.
func (h *History) Range() Range {
	if len(h.days) == 0 {
		return Range{}
	}
	return Range{From: h.days[0], To: h.days[len(h.days)-1]}
}

// Values iterates over the points in chronological order.
func (h *History) Values() iter.Seq2[Date, float64] {
	return func(yield func(Date, float64) bool) {
		for i, d := range h.days {
			if !yield(d, h.values[i]) {
				return
			}
		}
	}
}

// Intersect returns the sorted dates present in both histories.
func Intersect(a, b *History) []Date {
	var days []Date
	for _, d := range a.days {
		if _, ok := b.Get(d); ok {
			days = append(days, d)
		}
	}
	return days
}
