package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plain struct{ id int }

func (p *plain) Construct(b Builder) (*dom.Node, error) { return b.Element() }

type full struct{}

func (f *full) Construct(b Builder) (*dom.Node, error) { return b.Element() }

func (f *full) ObservedAttributes() []string { return []string{"Title", "title", "size"} }

func (f *full) Connected(context.Context, *dom.Node) error { return nil }

func (f *full) Disconnected(context.Context, *dom.Node) error { return nil }

func (f *full) Adopted(context.Context, *dom.Node, *dom.Document, *dom.Document) error { return nil }

func (f *full) AttributeChanged(context.Context, *dom.Node, AttributeChange) error { return nil }

// observerOnly declares attributes but cannot receive changes.
type observerOnly struct{}

func (o *observerOnly) Construct(b Builder) (*dom.Node, error) { return b.Element() }

func (o *observerOnly) ObservedAttributes() []string { return []string{"title"} }

// uncomparable is a value constructor whose type cannot be compared.
type uncomparable struct{ tags []string }

func (u uncomparable) Construct(b Builder) (*dom.Node, error) { return b.Element() }

// recordingUpgrader remembers what the registration scan asked for.
type recordingUpgrader struct {
	upgraded []string
	fail     map[string]error
}

func (u *recordingUpgrader) Upgrade(_ context.Context, n *dom.Node, def *Definition) error {
	if err := u.fail[n.ID()]; err != nil {
		return err
	}
	u.upgraded = append(u.upgraded, n.ID()+":"+def.Name)
	return nil
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	var nilPtr *plain

	testCases := []struct {
		name    string
		ctor    Constructor
		opts    Options
		wantErr error
	}{
		{name: "x-a", ctor: nil, wantErr: ErrValidation},
		{name: "x-a", ctor: nilPtr, wantErr: ErrValidation},
		{name: "x-a", ctor: uncomparable{}, wantErr: ErrValidation},
		{name: "panel", ctor: &plain{}, wantErr: ErrValidation},
		{name: "font-face", ctor: &plain{}, wantErr: ErrValidation},
		{name: "x-a", ctor: &plain{}, opts: Options{Extends: "x-b"}, wantErr: ErrValidation},
		{name: "x-a", ctor: &plain{}, opts: Options{Extends: "not a type"}, wantErr: ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(nil)
			err := r.Register(ctx, tc.name, tc.ctor, tc.opts)
			require.ErrorIs(t, err, tc.wantErr)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Equal(t, 0, r.Len(), "a rejected definition leaves the registry unchanged")
		})
	}
}

func TestRegister_Conflicts(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	ctor := &plain{}
	require.NoError(t, r.Register(ctx, "x-a", ctor, Options{}))

	err := r.Register(ctx, "X-A", &plain{id: 2}, Options{})
	assert.ErrorIs(t, err, ErrConflict, "names are case-insensitive")

	err = r.Register(ctx, "x-b", ctor, Options{})
	assert.ErrorIs(t, err, ErrConflict, "one constructor identity per definition")

	assert.Equal(t, 1, r.Len())
}

func TestRegister_Definition(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	require.NoError(t, r.Register(ctx, "x-full", &full{}, Options{}))
	require.NoError(t, r.Register(ctx, "fancy-button", &plain{}, Options{Extends: "BUTTON"}))
	require.NoError(t, r.Register(ctx, "x-obs", &observerOnly{}, Options{}))

	d, ok := r.Lookup("x-full")
	require.True(t, ok)
	assert.True(t, d.Autonomous())
	assert.Equal(t, "", d.Designator())
	assert.Equal(t, []string{"title", "size"}, d.ObservedAttributes)
	assert.True(t, d.Observes("size"))
	assert.NotNil(t, d.Callbacks.Connected)
	assert.NotNil(t, d.Callbacks.Disconnected)
	assert.NotNil(t, d.Callbacks.Adopted)
	assert.NotNil(t, d.Callbacks.AttributeChanged)

	d, ok = r.Lookup("fancy-button")
	require.True(t, ok)
	assert.False(t, d.Autonomous())
	assert.Equal(t, "button", d.BaseType)
	assert.Equal(t, "fancy-button", d.Designator())
	assert.Equal(t, Callbacks{}, d.Callbacks)

	d, ok = r.Lookup("x-obs")
	require.True(t, ok)
	assert.Nil(t, d.ObservedAttributes, "attributes without a callback are not observed")

	var names []string
	for _, d := range r.Definitions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"fancy-button", "x-full", "x-obs"}, names)

	ctor, ok := r.Get("x-full")
	require.True(t, ok)
	byCtor, ok := r.LookupByConstructor(ctor)
	require.True(t, ok)
	assert.Equal(t, "x-full", byCtor.Name)
	_, ok = r.LookupByConstructor(&plain{id: 9})
	assert.False(t, ok)
}

func TestRegister_UpgradesExistingNodes(t *testing.T) {
	ctx := context.Background()
	doc := dom.NewDocument()
	add := func(typ, id, is string) {
		n, err := doc.CreateNodeWithID(typ, id)
		require.NoError(t, err)
		if is != "" {
			n.SetAttribute(dom.DesignatorAttribute, is)
		}
		require.NoError(t, doc.Root().AppendChild(n))
	}
	add("x-a", "a1", "")
	add("button", "b1", "fancy-button")
	add("button", "b2", "")
	add("x-a", "a2", "")
	add("div", "d1", "fancy-button")

	up := &recordingUpgrader{fail: map[string]error{"a1": errors.New("boom")}}
	var observed []string
	r := New(doc)
	r.SetUpgrader(up)
	r.SetErrorObserver(func(_ context.Context, n *dom.Node, _ error) { observed = append(observed, n.ID()) })

	err := r.Register(ctx, "x-a", &plain{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	_, ok := r.Lookup("x-a")
	assert.True(t, ok, "scan failures do not unpublish the definition")
	assert.Equal(t, []string{"a2:x-a"}, up.upgraded, "every candidate is tried")
	assert.Equal(t, []string{"a1"}, observed)

	up.upgraded = nil
	require.NoError(t, r.Register(ctx, "fancy-button", &plain{id: 2}, Options{Extends: "button"}))
	assert.Equal(t, []string{"b1:fancy-button"}, up.upgraded)
}

func TestDefinitionOf(t *testing.T) {
	ctx := context.Background()
	doc := dom.NewDocument()
	r := New(doc)
	require.NoError(t, r.Register(ctx, "x-a", &plain{}, Options{}))
	require.NoError(t, r.Register(ctx, "fancy-button", &plain{id: 2}, Options{Extends: "button"}))

	node := func(typ, is string) *dom.Node {
		n, err := doc.CreateNode(typ)
		require.NoError(t, err)
		if is != "" {
			n.SetAttribute(dom.DesignatorAttribute, is)
		}
		return n
	}

	testCases := []struct {
		name string
		node *dom.Node
		want string
	}{
		{name: "autonomous", node: node("x-a", ""), want: "x-a"},
		{name: "customized", node: node("button", "Fancy-Button"), want: "fancy-button"},
		{name: "designator on wrong base", node: node("div", "fancy-button")},
		{name: "autonomous name as designator", node: node("div", "x-a")},
		{name: "plain primitive", node: node("button", "")},
		{name: "undefined", node: node("x-b", "")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := r.DefinitionOf(tc.node)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.want, d.Name)
		})
	}
}

func TestWhenDefined(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	_, err := r.WhenDefined("panel")
	assert.ErrorIs(t, err, ErrValidation)

	first, err := r.WhenDefined("x-a")
	require.NoError(t, err)
	second, err := r.WhenDefined("x-a")
	require.NoError(t, err)
	assert.Equal(t, first, second, "waiters on one name share a channel")

	select {
	case <-first:
		t.Fatal("closed before definition")
	default:
	}

	require.NoError(t, r.Register(ctx, "x-a", &plain{}, Options{}))
	select {
	case <-first:
	default:
		t.Fatal("not closed after definition")
	}

	after, err := r.WhenDefined("x-a")
	require.NoError(t, err)
	select {
	case <-after:
	default:
		t.Fatal("already-defined name must yield a closed channel")
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("cause")
	err := &ConstructionError{Name: "x-a", NodeID: "n1", Reason: "failed", Err: cause}
	assert.Equal(t, `construct "x-a" (node n1): failed: cause`, err.Error())
	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)

	assert.Equal(t, `invalid component definition "x": bad`, (&ValidationError{Name: "x", Reason: "bad"}).Error())
	assert.Equal(t, `component definition "x" conflicts: dup`, (&ConflictError{Name: "x", Reason: "dup"}).Error())
}
