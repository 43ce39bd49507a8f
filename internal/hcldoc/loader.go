package hcldoc

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/fsutil"
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// NodeSpec is one node of a document file.
type NodeSpec struct {
	Type       string
	ID         string
	Attributes []dom.Attr
	Children   []*NodeSpec
}

// Bundle is everything loaded from a set of paths.
type Bundle struct {
	Nodes      []*NodeSpec
	Components []kinds.Spec
}

// Loader reads HCL files into a Bundle.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses every .hcl file found under paths, in walk order, and merges
// their blocks. Paths that do not exist are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Bundle, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	bundle := &Bundle{}
	for _, file := range files {
		if err := l.loadFile(ctx, file, bundle); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "top_level_nodes", len(bundle.Nodes), "components", len(bundle.Components))
	return bundle, nil
}

// LoadSource parses a single in-memory file.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*Bundle, error) {
	bundle := &Bundle{}
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	if err := l.decode(ctx, filename, hclFile.Body, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (l *Loader) loadFile(ctx context.Context, file string, bundle *Bundle) error {
	hclFile, diags := l.parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}
	return l.decode(ctx, file, hclFile.Body, bundle)
}

func (l *Loader) decode(ctx context.Context, file string, body hcl.Body, bundle *Bundle) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	for _, n := range root.Nodes {
		spec, err := translateNode(n)
		if err != nil {
			return fmt.Errorf("in file %s: %w", file, err)
		}
		bundle.Nodes = append(bundle.Nodes, spec)
	}
	for _, c := range root.Components {
		spec, err := translateComponent(c)
		if err != nil {
			return fmt.Errorf("in file %s: %w", file, err)
		}
		bundle.Components = append(bundle.Components, spec)
	}
	ctxlog.FromContext(ctx).Debug("Decoded HCL file.", "path", file, "nodes", len(root.Nodes), "components", len(root.Components))
	return nil
}

func translateNode(b *nodeBlock) (*NodeSpec, error) {
	attrs, err := stringPairs(b.Attributes)
	if err != nil {
		return nil, fmt.Errorf("node '%s' attributes: %w", b.Type, err)
	}
	spec := &NodeSpec{Type: b.Type, ID: b.ID}
	for _, kv := range attrs {
		spec.Attributes = append(spec.Attributes, dom.Attr{Name: kv[0], Value: kv[1]})
	}
	for _, child := range b.Nodes {
		c, err := translateNode(child)
		if err != nil {
			return nil, err
		}
		spec.Children = append(spec.Children, c)
	}
	return spec, nil
}

func translateComponent(b *componentBlock) (kinds.Spec, error) {
	pairs, err := stringPairs(b.Settings)
	if err != nil {
		return kinds.Spec{}, fmt.Errorf("component '%s' settings: %w", b.Name, err)
	}
	spec := kinds.Spec{
		Name:               b.Name,
		Kind:               b.Kind,
		Extends:            b.Extends,
		ObservedAttributes: b.ObservedAttributes,
	}
	if len(pairs) > 0 {
		spec.Settings = make(map[string]string, len(pairs))
		for _, kv := range pairs {
			spec.Settings[kv[0]] = kv[1]
		}
	}
	return spec, nil
}

// stringPairs evaluates an object expression into key/value strings in
// source order. A missing or null expression yields nothing.
func stringPairs(expr hcl.Expression) ([][2]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}

	items, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([][2]string, 0, len(items))
	for _, item := range items {
		key, err := evalString(item.Key)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		value, err := evalString(item.Value)
		if err != nil {
			return nil, fmt.Errorf("value of '%s': %w", key, err)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}

func evalString(expr hcl.Expression) (string, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if v.IsNull() {
		return "", fmt.Errorf("null is not allowed")
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot use %s as a string: %w", v.Type().FriendlyName(), err)
	}
	var s string
	if err := gocty.FromCtyValue(sv, &s); err != nil {
		return "", err
	}
	return s, nil
}
