package schedule

import "sort"

// LaneItem is one day-scoped interval to color. CreatedAt is a
// tie-break only and sorts last when empty.
type LaneItem struct {
	ID        string
	Span      Span
	CreatedAt string
	Title     string
}

// LaneAssignment maps item ids to zero-based lanes. Count is the
// number of lanes opened, which equals the largest set of mutually
// overlapping items.
type LaneAssignment struct {
	Lanes map[string]int
	Count int
}

// AssignLanes colors intervals greedily: items sorted by start, then
// creation time, then title, each taking the lowest lane whose previous
// occupant ended strictly before the item starts. Touching endpoints
// still conflict.
func AssignLanes(items []LaneItem) LaneAssignment {
	sorted := make([]LaneItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Span.Start.Equal(b.Span.Start) {
			return a.Span.Start.Before(b.Span.Start)
		}
		if a.CreatedAt != b.CreatedAt {
			if a.CreatedAt == "" {
				return false
			}
			if b.CreatedAt == "" {
				return true
			}
			return a.CreatedAt < b.CreatedAt
		}
		return a.Title < b.Title
	})

	out := LaneAssignment{Lanes: make(map[string]int, len(sorted))}
	var laneEnds []Span
	for _, it := range sorted {
		lane := -1
		for i, end := range laneEnds {
			if end.End.Before(it.Span.Start) {
				lane = i
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, Span{})
		}
		laneEnds[lane] = it.Span
		out.Lanes[it.ID] = lane
	}
	out.Count = len(laneEnds)
	return out
}

// Collapse applies the inline rendering policy: items on lanes below
// maxVisible render in place, the rest fold into a "+k more" popup.
func Collapse(items []LaneItem, a LaneAssignment, maxVisible int) (inline []LaneItem, more int) {
	for _, it := range items {
		if a.Lanes[it.ID] < maxVisible {
			inline = append(inline, it)
		} else {
			more++
		}
	}
	return inline, more
}
