package minilisp

// Node is a tree node carrying a value of type T and its ordered children.
// Trees are never mutated by Fold; folds build new trees or values.
type Node[T any] struct {
	Value    T
	Children []*Node[T]
}

// NewNode constructs a node with value and children.
func NewNode[T any](value T, children ...*Node[T]) *Node[T] {
	if len(children) == 0 {
		children = nil
	}
	return &Node[T]{Value: value, Children: children}
}

// NodeInfo locates a node within the tree being folded.
type NodeInfo[T any] struct {
	Node   *Node[T]
	Parent *NodeInfo[T] // nil at the root
	Index  int          // index among the parent's children
}

// IsLast returns true if ni is the last child of its parent.
func (ni *NodeInfo[T]) IsLast() bool {
	return ni.Parent != nil && ni.Index == len(ni.Parent.Node.Children)-1
}

// Fold reduces the tree rooted at root bottom-up.  combine is called once
// for every node, after all of the node's children have been folded, with
// the node's position and the results of its children in order.
//
// Fold keeps no state between calls, so one tree may be folded any number
// of times with different combining functions.
func Fold[T, R any](root *Node[T], combine func(ni *NodeInfo[T], children []R) R) R {
	return fold(&NodeInfo[T]{Node: root}, combine)
}

func fold[T, R any](ni *NodeInfo[T], combine func(*NodeInfo[T], []R) R) R {
	results := make([]R, len(ni.Node.Children))
	for i, child := range ni.Node.Children {
		results[i] = fold(&NodeInfo[T]{Node: child, Parent: ni, Index: i}, combine)
	}
	return combine(ni, results)
}
