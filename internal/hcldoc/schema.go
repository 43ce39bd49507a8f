package hcldoc

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a file may contain.
type fileRoot struct {
	Nodes      []*nodeBlock      `hcl:"node,block"`
	Components []*componentBlock `hcl:"component,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type nodeBlock struct {
	Type       string         `hcl:"type,label"`
	ID         string         `hcl:"id,optional"`
	Attributes hcl.Expression `hcl:"attributes,optional"`
	Nodes      []*nodeBlock   `hcl:"node,block"`
}

type componentBlock struct {
	Name               string         `hcl:"name,label"`
	Kind               string         `hcl:"kind"`
	Extends            string         `hcl:"extends,optional"`
	ObservedAttributes []string       `hcl:"observed_attributes,optional"`
	Settings           hcl.Expression `hcl:"settings,optional"`
}
