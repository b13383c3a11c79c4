package platform

// Transitions maps a status to the statuses it may move to.
type Transitions map[string][]string

func (t Transitions) Can(from, to string) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Known reports whether status appears as a source or a target.
func (t Transitions) Known(status string) bool {
	if _, ok := t[status]; ok {
		return true
	}
	for _, targets := range t {
		for _, s := range targets {
			if s == status {
				return true
			}
		}
	}
	return false
}
