package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/componentry/internal/dom"
)

// Operation names.
const (
	OpAppend          = "append"
	OpRemove          = "remove"
	OpSetAttribute    = "set_attribute"
	OpRemoveAttribute = "remove_attribute"
)

// ErrUnknownOp is returned for an operation name Apply does not know.
var ErrUnknownOp = errors.New("unknown operation")

// Op is one tree mutation.
type Op struct {
	Op         string     `json:"op"`
	ID         string     `json:"id,omitempty"`
	Parent     string     `json:"parent,omitempty"`
	Type       string     `json:"type,omitempty"`
	Attributes []dom.Attr `json:"attributes,omitempty"`
	Name       string     `json:"name,omitempty"`
	Value      string     `json:"value,omitempty"`
	Namespace  string     `json:"namespace,omitempty"`
}

// Batch is an ordered list of operations.
type Batch struct {
	Ops []Op `json:"ops"`
}

// Decode converts an event payload into a Batch. Payloads arrive either as
// raw JSON or as values already decoded by the socket.io parser.
func Decode(payload any) (Batch, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return Batch{}, errors.New("empty payload")
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Batch{}, fmt.Errorf("re-encode payload: %w", err)
		}
		raw = b
	}

	var batch Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}

// Apply performs the operations of batch on doc in order. It stops at the
// first operation that fails and returns how many were applied.
func Apply(doc *dom.Document, batch Batch) (int, error) {
	for i, op := range batch.Ops {
		if err := apply(doc, op); err != nil {
			return i, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return len(batch.Ops), nil
}

func apply(doc *dom.Document, op Op) error {
	switch op.Op {
	case OpAppend:
		parent := doc.Root()
		if op.Parent != "" {
			p, err := lookup(doc, op.Parent)
			if err != nil {
				return err
			}
			parent = p
		}
		n, err := doc.CreateNodeWithID(op.Type, op.ID)
		if err != nil {
			return err
		}
		for _, a := range op.Attributes {
			n.SetAttributeNS(a.Namespace, a.Name, a.Value)
		}
		return parent.AppendChild(n)

	case OpRemove:
		n, err := lookup(doc, op.ID)
		if err != nil {
			return err
		}
		if n == doc.Root() {
			return fmt.Errorf("remove %s: %w", n, dom.ErrHierarchy)
		}
		n.Remove()
		return nil

	case OpSetAttribute:
		n, err := lookup(doc, op.ID)
		if err != nil {
			return err
		}
		if op.Name == "" {
			return errors.New("attribute name is required")
		}
		n.SetAttributeNS(op.Namespace, op.Name, op.Value)
		return nil

	case OpRemoveAttribute:
		n, err := lookup(doc, op.ID)
		if err != nil {
			return err
		}
		n.RemoveAttributeNS(op.Namespace, op.Name)
		return nil

	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, op.Op)
	}
}

func lookup(doc *dom.Document, id string) (*dom.Node, error) {
	n, ok := doc.NodeByID(id)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, dom.ErrUnknownNode)
	}
	return n, nil
}
