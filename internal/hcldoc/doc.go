// Package hcldoc loads documents and component manifests from HCL files.
//
// A file may hold any mix of the two top-level block types:
//
//	node "tab-panel" {
//	  id         = "intro"
//	  attributes = { title = "Intro", order = 1 }
//
//	  node "p" {}
//	}
//
//	component "tab-panel" {
//	  kind                = "mirror"
//	  extends             = ""
//	  observed_attributes = ["title"]
//	  settings            = { prefix = "data-copy-" }
//	}
//
// Attribute and setting values may be any primitive HCL value; they are
// converted to strings. Map keys keep their source order, which becomes the
// attribute order of the node.
package hcldoc
