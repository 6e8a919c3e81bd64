// Package compact converts scan trees to and from a short-field-name form
// used on the wire, where trees can hold hundreds of thousands of nodes.
package compact

import (
	"path/filepath"

	"github.com/lumipallolabs/storviz/internal/model"
)

// Node is the compact form of model.Node. Paths are not stored; Decode
// rebuilds them from the root path.
type Node struct {
	N string  `json:"n"`
	S int64   `json:"s"`
	D bool    `json:"d"`
	C []*Node `json:"c,omitempty"`
}

// Encode converts a tree to its compact form, keeping child order
func Encode(n *model.Node) *Node {
	c := Shallow(n)
	if len(n.Children) > 0 {
		c.C = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.C[i] = Encode(child)
		}
	}
	return c
}

// Shallow converts a single node without its children
func Shallow(n *model.Node) *Node {
	return &Node{
		N: n.Name,
		S: n.Size,
		D: n.IsDir,
	}
}

// ShallowAll converts a batch of nodes without their children
func ShallowAll(nodes []*model.Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = Shallow(n)
	}
	return out
}

// Decode rebuilds a full tree from a compact root. The root gets rootPath
// and every descendant's path is filepath.Join(parent path, name), the same
// join the walker uses when it captures paths.
func Decode(c *Node, rootPath string) *model.Node {
	return decode(c, rootPath)
}

func decode(c *Node, path string) *model.Node {
	n := &model.Node{
		Name:  c.N,
		Size:  c.S,
		Path:  path,
		IsDir: c.D,
	}
	if c.D {
		n.Children = make([]*model.Node, len(c.C))
		for i, child := range c.C {
			n.Children[i] = decode(child, filepath.Join(path, child.N))
		}
	}
	return n
}
