package filetree

import (
	"github.com/Fialia9363/fialiaoi-cpp/internal/fsview"
)

// Node is one row of the file tree.
type Node struct {
	Entry    fsview.Entry
	Parent   *Node
	Children []*Node
	Depth    int
	Expanded bool

	// loaded is false until the directory has been listed. Unloaded
	// directories carry a single placeholder child.
	loaded      bool
	placeholder bool
}

func newDirNode(entry fsview.Entry, parent *Node, depth int) *Node {
	n := &Node{Entry: entry, Parent: parent, Depth: depth}
	n.Children = []*Node{{Parent: n, Depth: depth + 1, placeholder: true}}
	return n
}

func newNode(entry fsview.Entry, parent *Node, depth int) *Node {
	if entry.IsDir {
		return newDirNode(entry, parent, depth)
	}
	return &Node{Entry: entry, Parent: parent, Depth: depth, loaded: true}
}

// IsPlaceholder reports whether n stands in for an unlisted directory's children.
func (n *Node) IsPlaceholder() bool { return n.placeholder }

// Loaded reports whether a directory's children have been listed.
func (n *Node) Loaded() bool { return n.loaded }

// load replaces the placeholder with the directory's listing.
func (n *Node) load(lister *fsview.Lister) {
	entries := lister.List(n.Entry.Path)
	n.Children = make([]*Node, 0, len(entries))
	for _, e := range entries {
		n.Children = append(n.Children, newNode(e, n, n.Depth+1))
	}
	n.loaded = true
}

// Flatten returns the visible nodes in display order: n, then the children
// of every expanded directory, depth first.
func (n *Node) Flatten() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		out = append(out, node)
		if !node.Expanded {
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}
