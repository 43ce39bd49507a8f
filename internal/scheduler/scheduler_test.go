package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[*dom.Node]*registry.Definition

func (m mapResolver) Resolve(n *dom.Node) (*registry.Definition, bool) {
	def, ok := m[n]
	return def, ok
}

type recordingCallbacks struct {
	calls []string
	err   error
}

func (r *recordingCallbacks) Connected(_ context.Context, n *dom.Node) error {
	r.calls = append(r.calls, "connected:"+n.ID())
	return r.err
}

func (r *recordingCallbacks) Disconnected(_ context.Context, n *dom.Node) error {
	r.calls = append(r.calls, "disconnected:"+n.ID())
	return r.err
}

func (r *recordingCallbacks) AttributeChanged(_ context.Context, n *dom.Node, c registry.AttributeChange) error {
	r.calls = append(r.calls, "attr:"+n.ID()+":"+c.Name+"="+c.NewValue.String())
	return r.err
}

func newNode(t *testing.T, doc *dom.Document, id string) *dom.Node {
	t.Helper()
	n, err := doc.CreateNodeWithID("x-a", id)
	require.NoError(t, err)
	return n
}

func TestFlush_RunsSnapshotInOrder(t *testing.T) {
	ctx := context.Background()
	s := New(mapResolver{}, nil)
	var got []string

	s.Defer("first", nil, func(context.Context) error {
		got = append(got, "first")
		// Queued during a flush: must wait for the next one.
		s.Defer("nested", nil, func(context.Context) error {
			got = append(got, "nested")
			return nil
		})
		return nil
	})
	s.Defer("second", nil, func(context.Context) error {
		got = append(got, "second")
		return nil
	})

	assert.Equal(t, 2, s.Flush(ctx))
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 1, s.Flush(ctx))
	assert.Equal(t, []string{"first", "second", "nested"}, got)
	assert.Equal(t, 0, s.Flush(ctx))
}

func TestFlush_NotReentrant(t *testing.T) {
	ctx := context.Background()
	s := New(mapResolver{}, nil)
	inner := -1
	s.Defer("outer", nil, func(ctx context.Context) error {
		s.Defer("later", nil, func(context.Context) error { return nil })
		inner = s.Flush(ctx)
		return nil
	})
	s.Flush(ctx)
	assert.Equal(t, 0, inner)
	assert.Equal(t, 1, s.Len())
}

func TestDrain(t *testing.T) {
	ctx := context.Background()
	s := New(mapResolver{}, nil)
	depth := 0
	var step Task
	step = func(context.Context) error {
		depth++
		if depth < 5 {
			s.Defer("step", nil, step)
		}
		return nil
	}
	s.Defer("step", nil, step)

	assert.Equal(t, 5, s.Drain(ctx))
	assert.Equal(t, 5, depth)
	assert.Equal(t, 0, s.Len())
}

func TestFailuresAreReportedAndDoNotStopTheFlush(t *testing.T) {
	ctx := context.Background()
	doc := dom.NewDocument()
	n := newNode(t, doc, "n1")

	var reported []error
	var reportedNodes []*dom.Node
	s := New(mapResolver{}, func(_ context.Context, n *dom.Node, err error) {
		reported = append(reported, err)
		reportedNodes = append(reportedNodes, n)
	})

	boom := errors.New("boom")
	ran := false
	s.Defer("fails", n, func(context.Context) error { return boom })
	s.Defer("panics", nil, func(context.Context) error { panic("kaput") })
	s.Defer("runs", nil, func(context.Context) error {
		ran = true
		return nil
	})

	assert.Equal(t, 3, s.Flush(ctx))
	assert.True(t, ran)
	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)
	assert.Same(t, n, reportedNodes[0])
	assert.Contains(t, reported[1].Error(), "kaput")
	assert.Nil(t, reportedNodes[1])
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()
	doc := dom.NewDocument()
	withCallbacks := newNode(t, doc, "n1")
	bare := newNode(t, doc, "n2")
	unknown := newNode(t, doc, "n3")

	cb := &recordingCallbacks{}
	full := &registry.Definition{
		Name:               "x-a",
		BaseType:           "x-a",
		ObservedAttributes: []string{"label"},
		Callbacks: registry.Callbacks{
			Connected:        cb,
			Disconnected:     cb,
			AttributeChanged: cb,
		},
	}
	empty := &registry.Definition{Name: "x-b", BaseType: "x-b"}
	s := New(mapResolver{withCallbacks: full, bare: empty}, nil)

	t.Run("capability present", func(t *testing.T) {
		assert.True(t, s.Enqueue(ctx, withCallbacks, Reaction{Kind: Connected}))
		assert.True(t, s.Enqueue(ctx, withCallbacks, Reaction{
			Kind:   AttributeChanged,
			Change: registry.AttributeChange{Name: "label", NewValue: dom.Some("hi")},
		}))
		assert.True(t, s.Enqueue(ctx, withCallbacks, Reaction{Kind: Disconnected}))
	})

	t.Run("capability absent is a no-op", func(t *testing.T) {
		assert.False(t, s.Enqueue(ctx, bare, Reaction{Kind: Connected}))
		assert.False(t, s.Enqueue(ctx, withCallbacks, Reaction{Kind: Adopted}))
	})

	t.Run("unobserved attribute is a no-op", func(t *testing.T) {
		assert.False(t, s.Enqueue(ctx, withCallbacks, Reaction{
			Kind:   AttributeChanged,
			Change: registry.AttributeChange{Name: "other"},
		}))
	})

	t.Run("node without definition is a no-op", func(t *testing.T) {
		assert.False(t, s.Enqueue(ctx, unknown, Reaction{Kind: Connected}))
	})

	assert.Empty(t, cb.calls, "enqueue must never invoke callbacks inline")
	assert.Equal(t, 3, s.Drain(ctx))
	assert.Equal(t, []string{"connected:n1", "attr:n1:label=hi", "disconnected:n1"}, cb.calls)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "attribute_changed", AttributeChanged.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestEnqueueFor_CapturesCallbacksAtEnqueueTime(t *testing.T) {
	ctx := context.Background()
	doc := dom.NewDocument()
	n := newNode(t, doc, "n1")
	cb := &recordingCallbacks{}
	def := &registry.Definition{Name: "x-a", BaseType: "x-a", Callbacks: registry.Callbacks{Connected: cb}}

	// The resolver knows nothing about n; the definition is supplied.
	s := New(mapResolver{}, nil)
	require.True(t, s.EnqueueFor(ctx, n, def, Reaction{Kind: Connected}))
	assert.False(t, s.Enqueue(ctx, n, Reaction{Kind: Connected}))

	s.Drain(ctx)
	assert.Equal(t, []string{"connected:n1"}, cb.calls)
}
