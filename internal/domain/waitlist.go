package domain

import (
	"fmt"
	"sort"
)

// NextRank returns the rank a new waitlist entry takes given the current
// waitlist size. Ranks are 1-based.
func NextRank(size int) int {
	return size + 1
}

// CheckRanks verifies that ranks form the contiguous sequence 1..N with no
// duplicates and no gaps. The input is not modified.
func CheckRanks(ranks []int) error {
	sorted := make([]int, len(ranks))
	copy(sorted, ranks)
	sort.Ints(sorted)

	for i, r := range sorted {
		want := i + 1
		if r == want {
			continue
		}
		if r == i {
			return fmt.Errorf("duplicate waitlist rank %d", r)
		}
		return fmt.Errorf("waitlist rank gap: want %d, got %d", want, r)
	}

	return nil
}

// CheckEventCounts verifies the capacity invariant on a stored event row.
func CheckEventCounts(e *Event) error {
	if e.CurrentAttendees < 0 {
		return fmt.Errorf("event %s: negative attendee count %d", e.ID, e.CurrentAttendees)
	}
	if e.CurrentAttendees > e.Capacity {
		return fmt.Errorf(
			"event %s: attendee count %d exceeds capacity %d",
			e.ID, e.CurrentAttendees, e.Capacity,
		)
	}
	return nil
}
