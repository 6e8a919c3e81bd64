package model

import "sort"

// SortBySize sorts nodes by total size descending, then by name ascending.
// This is a presentation order; the walker never sorts.
func SortBySize(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		si, sj := nodes[i].TotalSize(), nodes[j].TotalSize()
		if si != sj {
			return si > sj
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// Largest returns up to n children of dir ordered by SortBySize,
// leaving dir itself untouched
func Largest(dir *Node, n int) []*Node {
	out := make([]*Node, len(dir.Children))
	copy(out, dir.Children)
	SortBySize(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
