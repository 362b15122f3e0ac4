// Package ordering computes the sibling adjustments needed to keep a
// container's order values dense (0..n-1) across inserts, removals and moves.
// It is pure logic: callers translate Shifts into conditional bulk updates and
// commit them together with the moved item's write in one transaction.
package ordering

// Unbounded marks a Shift with no upper limit.
const Unbounded = int(^uint(0) >> 1)

// Shift adds Delta to every sibling whose order lies in [Low, High].
type Shift struct {
	Low   int
	High  int
	Delta int
}

// Reorder returns the sibling shifts for a move within a single container.
// Moving to a lower index pushes the displaced range up by one; moving to a
// higher index pulls it down. Equal indices need no adjustment. The moved
// item itself is never inside the returned range.
func Reorder(oldOrder, newOrder int) []Shift {
	switch {
	case newOrder < oldOrder:
		return []Shift{{Low: newOrder, High: oldOrder - 1, Delta: 1}}
	case newOrder > oldOrder:
		return []Shift{{Low: oldOrder + 1, High: newOrder, Delta: -1}}
	default:
		return nil
	}
}

// CloseGap is the source half of a cross-container move: everything after the
// removed position slides down by one.
func CloseGap(oldOrder int) Shift {
	return Shift{Low: oldOrder + 1, High: Unbounded, Delta: -1}
}

// OpenSlot is the destination half of a cross-container move: everything at or
// after the target position slides up by one.
func OpenSlot(newOrder int) Shift {
	return Shift{Low: newOrder, High: Unbounded, Delta: 1}
}

// Next returns the order for an appended item. Pass empty=true when the
// container has no items; maxOrder is ignored in that case.
func Next(maxOrder int, empty bool) int {
	if empty {
		return 0
	}
	return maxOrder + 1
}

// Apply returns a copy of orders with every shift applied, in order.
func Apply(orders []int, shifts ...Shift) []int {
	out := make([]int, len(orders))
	copy(out, orders)
	for _, s := range shifts {
		for i, o := range out {
			if o >= s.Low && o <= s.High {
				out[i] = o + s.Delta
			}
		}
	}
	return out
}
