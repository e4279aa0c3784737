package feed

// Expansion tracks which visible items the reader expanded. Indices are
// stable because the visible list only grows. The zero value is ready to use;
// it is not safe for concurrent use.
type Expansion struct {
	expanded map[int]bool
}

// Toggle flips the expanded state of index.
func (e *Expansion) Toggle(index int) {
	if e.expanded == nil {
		e.expanded = make(map[int]bool)
	}
	e.expanded[index] = !e.expanded[index]
}

// IsExpanded is true when index was toggled open or the item is short enough
// to be shown in full anyway.
func (e *Expansion) IsExpanded(index int, item Item, threshold int) bool {
	return e.expanded[index] || IsShort(item, threshold)
}

func (e *Expansion) Clear() {
	e.expanded = nil
}
