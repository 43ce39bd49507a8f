package dom

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Document owns the connected tree and the mutation subscriptions over it.
type Document struct {
	root  *Node
	byID  map[string]*Node
	subs  []*Subscription
	newID func() string
}

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator replaces the UUID generator used for nodes created without
// an explicit id.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) { d.newID = fn }
}

// NewDocument creates an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		byID:  make(map[string]*Node),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.root = &Node{id: RootID, typ: DocumentType, doc: d}
	d.byID[d.root.id] = d.root
	return d
}

// Root returns the document's root node.
func (d *Document) Root() *Node { return d.root }

// CreateNode allocates a bare, detached node of the given type.
func (d *Document) CreateNode(typeName string) (*Node, error) {
	return d.CreateNodeWithID(typeName, "")
}

// CreateNodeWithID allocates a detached node with a caller-chosen id. An
// empty id gets a generated one. Id uniqueness is enforced when the node is
// connected, not here.
func (d *Document) CreateNodeWithID(typeName, id string) (*Node, error) {
	typeName = strings.ToLower(strings.TrimSpace(typeName))
	if !validTypeName(typeName) {
		return nil, fmt.Errorf("create node %q: %w", typeName, ErrInvalidTagName)
	}
	if id == "" {
		id = d.newID()
	}
	return &Node{id: id, typ: typeName, doc: d}, nil
}

// NodeByID returns a connected node by id.
func (d *Document) NodeByID(id string) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// Query returns connected nodes of typeName in document order. A non-empty
// designator further requires the node's designator attribute to equal it.
func (d *Document) Query(typeName, designator string) []*Node {
	typeName = strings.ToLower(typeName)
	var out []*Node
	for _, n := range d.root.Descendants() {
		if n.typ != typeName {
			continue
		}
		if designator != "" {
			if v, ok := n.Attribute(DesignatorAttribute); !ok || v != designator {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func (d *Document) checkIDs(sub *Node) error {
	seen := make(map[string]struct{})
	for _, n := range append([]*Node{sub}, sub.Descendants()...) {
		if _, taken := d.byID[n.id]; taken {
			return fmt.Errorf("connect %s: %w", n, ErrDuplicateID)
		}
		if _, dup := seen[n.id]; dup {
			return fmt.Errorf("connect %s: %w", n, ErrDuplicateID)
		}
		seen[n.id] = struct{}{}
	}
	return nil
}

func (d *Document) index(sub *Node) {
	d.byID[sub.id] = sub
	for _, n := range sub.Descendants() {
		d.byID[n.id] = n
	}
}

func (d *Document) unindex(sub *Node) {
	delete(d.byID, sub.id)
	for _, n := range sub.Descendants() {
		delete(d.byID, n.id)
	}
}

func validTypeName(name string) bool {
	if name == "" || name == DocumentType {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if unicode.IsSpace(r) || r == '/' || r == '>' || r == '<' || r == '"' || r == '\'' || r == '=' {
			return false
		}
	}
	return true
}
