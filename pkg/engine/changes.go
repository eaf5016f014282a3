package engine

// ColumnChanges describes how the column set changed between two uploads of
// the same session.
type ColumnChanges struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether the column sets were identical.
func (c ColumnChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// DiffColumns compares the previous and next column names. A first upload
// (previous is nil) reports no changes. Order follows the respective input.
func DiffColumns(previous, next []string) ColumnChanges {
	var changes ColumnChanges
	if previous == nil {
		return changes
	}

	before := make(map[string]bool, len(previous))
	for _, c := range previous {
		before[c] = true
	}
	after := make(map[string]bool, len(next))
	for _, c := range next {
		after[c] = true
		if !before[c] {
			changes.Added = append(changes.Added, c)
		}
	}
	for _, c := range previous {
		if !after[c] {
			changes.Removed = append(changes.Removed, c)
		}
	}
	return changes
}
