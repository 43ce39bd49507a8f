package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/engine"
	"github.com/specialistvlad/componentry/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type badge struct{}

func (b *badge) Construct(bld registry.Builder) (*dom.Node, error) { return bld.Element() }

func (b *badge) ObservedAttributes() []string { return []string{"Label"} }

func (b *badge) Connected(context.Context, *dom.Node) error { return nil }

func (b *badge) AttributeChanged(context.Context, *dom.Node, registry.AttributeChange) error {
	return nil
}

type broken struct{}

func (b *broken) Construct(registry.Builder) (*dom.Node, error) { return nil, assert.AnError }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	doc := dom.NewDocument()
	eng := engine.New(doc)

	for _, spec := range []struct{ typ, id string }{
		{"x-badge", "b1"}, {"x-broken", "k1"}, {"div", "plain"},
	} {
		n, err := doc.CreateNodeWithID(spec.typ, spec.id)
		require.NoError(t, err)
		require.NoError(t, doc.Root().AppendChild(n))
	}
	b1, _ := doc.NodeByID("b1")
	b1.SetAttribute("label", "new")
	plain, _ := doc.NodeByID("plain")
	inner, err := doc.CreateNodeWithID("span", "inner")
	require.NoError(t, err)
	require.NoError(t, plain.AppendChild(inner))

	require.NoError(t, eng.Define(ctx, "x-badge", &badge{}, registry.Options{}))
	require.Error(t, eng.Define(ctx, "x-broken", &broken{}, registry.Options{}))
	require.NoError(t, eng.Settle(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(NewEngineSource(eng, &sync.Mutex{}), logger))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))
}

func TestComponents(t *testing.T) {
	srv := newTestServer(t)
	var got struct {
		Components []ComponentView `json:"components"`
	}
	getJSON(t, srv.URL+"/v1/components", http.StatusOK, &got)

	assert.Equal(t, []ComponentView{
		{
			Name:               "x-badge",
			BaseType:           "x-badge",
			Autonomous:         true,
			ObservedAttributes: []string{"label"},
			Callbacks:          []string{"connected", "attribute_changed"},
		},
		{
			Name:               "x-broken",
			BaseType:           "x-broken",
			Autonomous:         true,
			ObservedAttributes: []string{},
			Callbacks:          []string{},
		},
	}, got.Components)
}

func TestNodes(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		id   string
		want NodeView
	}{
		{
			id: "b1",
			want: NodeView{
				ID: "b1", Type: "x-badge", Connected: true, State: "custom", Component: "x-badge",
				Attributes: []dom.Attr{{Name: "label", Value: "new"}},
				Children:   []string{},
			},
		},
		{
			id: "k1",
			want: NodeView{
				ID: "k1", Type: "x-broken", Connected: true, State: "failed",
				Attributes: []dom.Attr{}, Children: []string{},
			},
		},
		{
			id: "plain",
			want: NodeView{
				ID: "plain", Type: "div", Connected: true, State: "unset",
				Attributes: []dom.Attr{}, Children: []string{"inner"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			var got NodeView
			getJSON(t, srv.URL+"/v1/nodes/"+tc.id, http.StatusOK, &got)
			assert.Equal(t, tc.want, got)
		})
	}

	var notFound apiError
	getJSON(t, srv.URL+"/v1/nodes/missing", http.StatusNotFound, &notFound)
	assert.Equal(t, "NOT_FOUND", notFound.Code)
}

func TestStates(t *testing.T) {
	srv := newTestServer(t)
	var got struct {
		States map[string]int `json:"states"`
	}
	getJSON(t, srv.URL+"/v1/states", http.StatusOK, &got)
	assert.Equal(t, 1, got.States["custom"])
	assert.Equal(t, 1, got.States["failed"])
}
