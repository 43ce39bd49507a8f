package hcldoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const documentHCL = `
node "tab-panel" {
  id         = "intro"
  attributes = {
    title   = "Intro"
    order   = 1
    enabled = true
  }

  node "p" {
    attributes = { "data-x" = "y" }
  }
}

node "tab-panel" {}
`

const manifestHCL = `
component "tab-panel" {
  kind                = "mirror"
  observed_attributes = ["title"]
  settings            = { prefix = "data-copy-" }
}

component "fancy-button" {
  kind    = "counter"
  extends = "button"
}
`

func TestLoad(t *testing.T) {
	ctx := context.Background()
	root := writeFiles(t, map[string]string{
		"doc/main.hcl":         documentHCL,
		"components/panel.hcl": manifestHCL,
		"components/README.md": "not hcl",
	})

	bundle, err := NewLoader().Load(ctx, filepath.Join(root, "doc"), filepath.Join(root, "components"), filepath.Join(root, "missing"))
	require.NoError(t, err)

	wantNodes := []*NodeSpec{
		{
			Type: "tab-panel",
			ID:   "intro",
			Attributes: []dom.Attr{
				{Name: "title", Value: "Intro"},
				{Name: "order", Value: "1"},
				{Name: "enabled", Value: "true"},
			},
			Children: []*NodeSpec{
				{Type: "p", Attributes: []dom.Attr{{Name: "data-x", Value: "y"}}},
			},
		},
		{Type: "tab-panel"},
	}
	if diff := cmp.Diff(wantNodes, bundle.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	wantComponents := []kinds.Spec{
		{
			Name:               "tab-panel",
			Kind:               "mirror",
			ObservedAttributes: []string{"title"},
			Settings:           map[string]string{"prefix": "data-copy-"},
		},
		{Name: "fancy-button", Kind: "counter", Extends: "button"},
	}
	if diff := cmp.Diff(wantComponents, bundle.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSingleFileOnce(t *testing.T) {
	root := writeFiles(t, map[string]string{"main.hcl": manifestHCL})
	file := filepath.Join(root, "main.hcl")

	bundle, err := NewLoader().Load(context.Background(), file, root)
	require.NoError(t, err)
	assert.Len(t, bundle.Components, 2, "a file reached twice is loaded once")
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax", src: `node "x" {`, wantErr: "failed to parse"},
		{name: "missing kind", src: `component "x-a" {}`, wantErr: "failed to decode"},
		{name: "attributes not an object", src: `node "x" { attributes = "nope" }`, wantErr: "expected an object"},
		{name: "null attribute value", src: `node "x" { attributes = { a = null } }`, wantErr: "null is not allowed"},
		{name: "list attribute value", src: `node "x" { attributes = { a = [1] } }`, wantErr: "cannot use"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadSource(context.Background(), []byte(tc.src), "test.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuild(t *testing.T) {
	bundle, err := NewLoader().LoadSource(context.Background(), []byte(documentHCL), "doc.hcl")
	require.NoError(t, err)

	doc := dom.NewDocument()
	sub := doc.Observe(nil)
	nodes, err := Build(doc.Root(), bundle.Nodes)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	intro, ok := doc.NodeByID("intro")
	require.True(t, ok)
	assert.Same(t, nodes[0], intro)
	assert.Equal(t, []dom.Attr{
		{Name: "title", Value: "Intro"},
		{Name: "order", Value: "1"},
		{Name: "enabled", Value: "true"},
	}, intro.Attributes())
	require.Len(t, intro.Children(), 1)
	assert.Equal(t, "p", intro.Children()[0].Type())

	records := sub.TakeRecords()
	assert.Len(t, records, 2, "one addition record per top-level node")
}

func TestBuildDuplicateID(t *testing.T) {
	bundle, err := NewLoader().LoadSource(context.Background(), []byte(`
node "a" { id = "same" }
node "b" { id = "same" }
`), "dup.hcl")
	require.NoError(t, err)

	doc := dom.NewDocument()
	nodes, err := Build(doc.Root(), bundle.Nodes)
	assert.ErrorIs(t, err, dom.ErrDuplicateID)
	assert.Len(t, nodes, 1)
}
