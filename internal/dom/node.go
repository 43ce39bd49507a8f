package dom

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DesignatorAttribute names the attribute that declares which customized
// built-in component a primitive node should become.
const DesignatorAttribute = "is"

// DocumentType is the type name of a document's root node.
const DocumentType = "#document"

// RootID is the id of every document's root node.
const RootID = "root"

var (
	ErrNilNode        = errors.New("node is nil")
	ErrHierarchy      = errors.New("hierarchy request error")
	ErrWrongDocument  = errors.New("node belongs to another document")
	ErrDuplicateID    = errors.New("duplicate node id")
	ErrNotChild       = errors.New("node is not a child of this parent")
	ErrUnknownNode    = errors.New("unknown node")
	ErrInvalidTagName = errors.New("invalid type name")
)

// Attr is one attribute in a node's ordered attribute list.
type Attr struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Namespace string `json:"namespace,omitempty"`
}

// NullString is a string that may be absent, used for attribute values that
// did not exist before or after a change.
type NullString struct {
	Value string
	Valid bool
}

// Some wraps a present value.
func Some(v string) NullString { return NullString{Value: v, Valid: true} }

func (s NullString) String() string {
	if !s.Valid {
		return "<null>"
	}
	return s.Value
}

// Node is a vertex of the host tree.
type Node struct {
	id       string
	typ      string
	attrs    []Attr
	parent   *Node
	children []*Node
	doc      *Document
}

// ID returns the node's stable identifier.
func (n *Node) ID() string { return n.id }

// Type returns the lower-cased type name the node was created with.
func (n *Node) Type() string { return n.typ }

// Document returns the owner document.
func (n *Node) Document() *Document { return n.doc }

// Parent returns the parent node, or nil for detached and root nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%s", n.typ, n.id)
}

func (n *Node) root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// IsConnected reports whether the node's root is its document's root.
func (n *Node) IsConnected() bool {
	return n.doc != nil && n.root() == n.doc.root
}

// Descendants returns every node below n in pre-order, excluding n.
func (n *Node) Descendants() []*Node {
	var out []*Node
	stack := slices.Clone(n.children)
	slices.Reverse(stack)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
	return out
}

func (n *Node) nextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	i := slices.Index(siblings, n)
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

func (n *Node) isInclusiveAncestorOf(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of n's child list.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref, or at the end when ref is nil. A
// child that already has a parent is removed from it first, producing a
// removal record followed by an addition record.
func (n *Node) InsertBefore(child, ref *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child.doc != n.doc {
		return fmt.Errorf("insert %s into %s: %w", child, n, ErrWrongDocument)
	}
	if child == n.doc.root || child.isInclusiveAncestorOf(n) {
		return fmt.Errorf("insert %s into %s: %w", child, n, ErrHierarchy)
	}
	if ref != nil && ref.parent != n {
		return fmt.Errorf("insert before %s: %w", ref, ErrNotChild)
	}
	if ref == child {
		ref = child.nextSibling()
	}
	if n.IsConnected() && !child.IsConnected() {
		if err := n.doc.checkIDs(child); err != nil {
			return err
		}
	}

	if child.parent != nil {
		child.parent.detach(child)
	}

	idx := len(n.children)
	if ref != nil {
		idx = slices.Index(n.children, ref)
	}
	n.children = slices.Insert(n.children, idx, child)
	child.parent = n
	if n.IsConnected() {
		n.doc.index(child)
		n.doc.record(MutationRecord{Type: ChildList, Target: n, Added: []*Node{child}})
	}
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child.parent != n {
		return fmt.Errorf("remove %s from %s: %w", child, n, ErrNotChild)
	}
	n.detach(child)
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.detach(n)
	}
}

func (n *Node) detach(child *Node) {
	wasConnected := n.IsConnected()
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool { return c == child })
	child.parent = nil
	if wasConnected {
		n.doc.unindex(child)
		n.doc.record(MutationRecord{Type: ChildList, Target: n, Removed: []*Node{child}})
	}
}

// Attributes returns a copy of the ordered attribute list.
func (n *Node) Attributes() []Attr { return slices.Clone(n.attrs) }

// Attribute returns the value of the first attribute called name.
func (n *Node) Attribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether an attribute called name is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.Attribute(name)
	return ok
}

// SetAttribute sets a non-namespaced attribute.
func (n *Node) SetAttribute(name, value string) {
	n.SetAttributeNS("", name, value)
}

// SetAttributeNS sets the attribute (namespace, name). New attributes are
// appended to the attribute list; existing ones keep their position.
func (n *Node) SetAttributeNS(namespace, name, value string) {
	name = strings.ToLower(name)
	old := NullString{}
	i := slices.IndexFunc(n.attrs, func(a Attr) bool { return a.Name == name && a.Namespace == namespace })
	if i >= 0 {
		old = Some(n.attrs[i].Value)
		n.attrs[i].Value = value
	} else {
		n.attrs = append(n.attrs, Attr{Name: name, Value: value, Namespace: namespace})
	}
	if n.IsConnected() {
		n.doc.record(MutationRecord{
			Type:               Attributes,
			Target:             n,
			AttributeName:      name,
			AttributeNamespace: namespace,
			OldValue:           old,
		})
	}
}

// AttributeNS returns the value of the attribute (namespace, name).
func (n *Node) AttributeNS(namespace, name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.attrs {
		if a.Name == name && a.Namespace == namespace {
			return a.Value, true
		}
	}
	return "", false
}

// RemoveAttribute removes the non-namespaced attribute called name, reporting
// whether one was present.
func (n *Node) RemoveAttribute(name string) bool {
	return n.RemoveAttributeNS("", name)
}

// RemoveAttributeNS removes the attribute (namespace, name), reporting whether
// one was present.
func (n *Node) RemoveAttributeNS(namespace, name string) bool {
	name = strings.ToLower(name)
	i := slices.IndexFunc(n.attrs, func(a Attr) bool { return a.Name == name && a.Namespace == namespace })
	if i < 0 {
		return false
	}
	removed := n.attrs[i]
	n.attrs = slices.Delete(n.attrs, i, i+1)
	if n.IsConnected() {
		n.doc.record(MutationRecord{
			Type:               Attributes,
			Target:             n,
			AttributeName:      removed.Name,
			AttributeNamespace: removed.Namespace,
			OldValue:           Some(removed.Value),
		})
	}
	return true
}
