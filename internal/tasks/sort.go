package tasks

import "slices"

// SortTasks orders tasks by priority (high, medium, low, none) and then by
// due date ascending. Tasks without a due date come after those with one.
// The sort is stable.
func SortTasks(ts []TaskWithSource) {
	slices.SortStableFunc(ts, compareTasks)
}

func compareTasks(a, b TaskWithSource) int {
	if ra, rb := a.Metadata.Priority.Rank(), b.Metadata.Priority.Rank(); ra != rb {
		return ra - rb
	}
	da, db := a.Metadata.Due, b.Metadata.Due
	switch {
	case da == nil && db == nil:
		return 0
	case da == nil:
		return 1
	case db == nil:
		return -1
	}
	return da.Compare(*db)
}
