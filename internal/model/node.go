package model

import "fmt"

// Node represents a file or directory in the scanned tree
type Node struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"` // direct size for files, sum of children for dirs
	Path     string  `json:"path"`
	Children []*Node `json:"children,omitempty"`
	IsDir    bool    `json:"isDirectory"`
}

// TotalSize returns the size of the node in bytes
func (n *Node) TotalSize() int64 {
	return n.Size
}

// SumChildren sets a directory's size to the sum of its direct children.
// Children must already be final.
func (n *Node) SumChildren() int64 {
	if !n.IsDir {
		return n.Size
	}
	var total int64
	for _, child := range n.Children {
		total += child.Size
	}
	n.Size = total
	return total
}

// Walk visits n and all of its descendants in pre-order
func (n *Node) Walk(visitor func(n *Node)) {
	visitor(n)
	for _, child := range n.Children {
		child.Walk(visitor)
	}
}

// Count returns the number of non-directory and directory nodes below n,
// not counting n itself
func (n *Node) Count() (files, dirs int64) {
	for _, child := range n.Children {
		if child.IsDir {
			dirs++
		} else {
			files++
		}
		f, d := child.Count()
		files += f
		dirs += d
	}
	return files, dirs
}

// Verify checks that every directory's size equals the sum of its children
// and that no size is negative
func (n *Node) Verify() error {
	if n.Size < 0 {
		return fmt.Errorf("%s: negative size %d", n.Path, n.Size)
	}
	if !n.IsDir {
		if len(n.Children) > 0 {
			return fmt.Errorf("%s: file has %d children", n.Path, len(n.Children))
		}
		return nil
	}
	var sum int64
	for _, child := range n.Children {
		if err := child.Verify(); err != nil {
			return err
		}
		sum += child.Size
	}
	if sum != n.Size {
		return fmt.Errorf("%s: size %d != sum of children %d", n.Path, n.Size, sum)
	}
	return nil
}
