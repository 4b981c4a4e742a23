// Package navigation builds the ordered sidebar tree from declared sidebar entries and
// the directory structure of the content root.
//
// The tree is stored as an arena: every node lives in a single slice and refers to its
// children by index. Nodes are only ever appended, and a child index is always greater
// than the index of its parent, so the structure cannot contain cycles.
package navigation

// NodeID addresses a node inside a Tree.
type NodeID int

// NodeKind distinguishes pages, links and sections.
type NodeKind string

const (
	KindPage    NodeKind = "page"
	KindLink    NodeKind = "link"
	KindSection NodeKind = "section"
)

// Node is one resolved sidebar item.
type Node struct {
	Label string
	Kind  NodeKind
	// Slug and Source are set for pages. Source is relative to the content root.
	Slug   string
	Source string
	// Href is set for links.
	Href string
	// Fingerprint is the mdfp digest of the page document.
	Fingerprint string
	Children    []NodeID
}

// Tree is an immutable, fully ordered navigation tree.
type Tree struct {
	nodes []Node
	roots []NodeID
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Roots returns the top-level nodes in display order.
func (t *Tree) Roots() []NodeID {
	return append([]NodeID(nil), t.roots...)
}

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id NodeID) Node {
	n := t.nodes[id]
	n.Children = append([]NodeID(nil), n.Children...)
	return n
}

// Walk visits nodes depth-first in display order.
func (t *Tree) Walk(fn func(id NodeID, depth int)) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		fn(id, depth)
		for _, c := range t.nodes[id].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}

// Pages returns the slugs of every page leaf in display order.
func (t *Tree) Pages() []string {
	var slugs []string
	t.Walk(func(id NodeID, _ int) {
		if t.nodes[id].Kind == KindPage {
			slugs = append(slugs, t.nodes[id].Slug)
		}
	})
	return slugs
}

// Item is the nested, serializable form of a node consumed by the site generator.
type Item struct {
	Label  string   `yaml:"label" json:"label"`
	Kind   NodeKind `yaml:"kind" json:"kind"`
	Slug   string   `yaml:"slug,omitempty" json:"slug,omitempty"`
	Source string   `yaml:"source,omitempty" json:"source,omitempty"`
	Href   string   `yaml:"href,omitempty" json:"href,omitempty"`
	Items  []Item   `yaml:"items,omitempty" json:"items,omitempty"`
}

// Items converts the arena into the nested Item view.
func (t *Tree) Items() []Item {
	if t == nil {
		return nil
	}
	var convert func(id NodeID) Item
	convert = func(id NodeID) Item {
		n := t.nodes[id]
		it := Item{Label: n.Label, Kind: n.Kind, Slug: n.Slug, Source: n.Source, Href: n.Href}
		if n.Kind == KindSection {
			it.Items = make([]Item, 0, len(n.Children))
		}
		for _, c := range n.Children {
			it.Items = append(it.Items, convert(c))
		}
		return it
	}
	items := make([]Item, 0, len(t.roots))
	for _, r := range t.roots {
		items = append(items, convert(r))
	}
	return items
}

// add appends n under parent (or as a root when parent is negative) and returns its id.
func (t *Tree) add(n Node, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	n.Children = nil
	t.nodes = append(t.nodes, n)
	if parent < 0 {
		t.roots = append(t.roots, id)
	} else {
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	return id
}

// graft copies every root of sub, with its descendants, under parent.
func (t *Tree) graft(sub *Tree, parent NodeID) {
	var copyNode func(src NodeID, dst NodeID)
	copyNode = func(src NodeID, dst NodeID) {
		id := t.add(sub.nodes[src], dst)
		for _, c := range sub.nodes[src].Children {
			copyNode(c, id)
		}
	}
	for _, r := range sub.roots {
		copyNode(r, parent)
	}
}
