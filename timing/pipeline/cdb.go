package pipeline

// arbitrate picks the highest-priority unit with a valid candidate, or -1.
func arbitrate(cand *[numUnits]result, priority []Unit) Unit {
	for _, u := range priority {
		if cand[u].Valid {
			return u
		}
	}
	return -1
}

func countValid(cand *[numUnits]result) int {
	n := 0
	for i := range cand {
		if cand[i].Valid {
			n++
		}
	}
	return n
}
