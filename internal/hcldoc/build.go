package hcldoc

import (
	"fmt"

	"github.com/specialistvlad/componentry/internal/dom"
)

// Build creates the nodes described by specs and appends them to parent.
// Each subtree is assembled detached and inserted in one step, so a document
// produces one addition record per top-level node.
func Build(parent *dom.Node, specs []*NodeSpec) ([]*dom.Node, error) {
	out := make([]*dom.Node, 0, len(specs))
	for _, spec := range specs {
		n, err := create(parent.Document(), spec)
		if err != nil {
			return out, err
		}
		if err := parent.AppendChild(n); err != nil {
			return out, fmt.Errorf("insert node '%s': %w", spec.Type, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func create(doc *dom.Document, spec *NodeSpec) (*dom.Node, error) {
	n, err := doc.CreateNodeWithID(spec.Type, spec.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range spec.Attributes {
		n.SetAttributeNS(a.Namespace, a.Name, a.Value)
	}
	for _, childSpec := range spec.Children {
		child, err := create(doc, childSpec)
		if err != nil {
			return nil, err
		}
		if err := n.AppendChild(child); err != nil {
			return nil, fmt.Errorf("insert node '%s': %w", childSpec.Type, err)
		}
	}
	return n, nil
}
