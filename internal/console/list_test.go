package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/models"
)

type item struct {
	ID   string
	Name string
}

func itemID(i item) string { return i.ID }

type listResult struct {
	items []item
	err   error
}

// gatedLister blocks each List call until its result is released.
type gatedLister struct {
	mu      sync.Mutex
	calls   int
	gates   []chan listResult
	started chan int
}

func newGatedLister(n int) *gatedLister {
	g := &gatedLister{started: make(chan int, n)}
	for i := 0; i < n; i++ {
		g.gates = append(g.gates, make(chan listResult, 1))
	}
	return g
}

func (g *gatedLister) List(ctx context.Context) ([]item, error) {
	g.mu.Lock()
	i := g.calls
	g.calls++
	g.mu.Unlock()
	g.started <- i
	r := <-g.gates[i]
	return r.items, r.err
}

// staticLister returns fixed results and counts calls.
type staticLister struct {
	mu    sync.Mutex
	items []item
	err   error
	calls int
}

func (s *staticLister) List(ctx context.Context) ([]item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]item(nil), s.items...), s.err
}

func (s *staticLister) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestLoad_LastResolvedWins(t *testing.T) {
	tests := []struct {
		name  string
		order []int
		want  string
	}{
		{name: "first resolves first", order: []int{0, 1}, want: "second"},
		{name: "second resolves first", order: []int{1, 0}, want: "first"},
	}
	payloads := [][]item{{{ID: "1", Name: "first"}}, {{ID: "1", Name: "second"}}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newGatedLister(2)
			lc := NewListController[item]("Item", src, itemID, zerolog.Nop())

			done := make([]chan error, 2)
			for i := range done {
				done[i] = make(chan error, 1)
				go func() { done[i] <- lc.Load(context.Background()) }()
				<-src.started
			}
			assert.True(t, lc.IsLoading())

			for _, i := range tt.order {
				src.gates[i] <- listResult{items: payloads[i]}
				require.NoError(t, <-done[i])
			}

			assert.False(t, lc.IsLoading())
			require.Len(t, lc.Items(), 1)
			assert.Equal(t, tt.want, lc.Items()[0].Name)
		})
	}
}

func TestLoad_FailureKeepsStaleItems(t *testing.T) {
	src := &staticLister{items: []item{{ID: "1", Name: "a"}}}
	lc := NewListController[item]("Item", src, itemID, zerolog.Nop())
	require.NoError(t, lc.Load(context.Background()))

	src.err = &client.Error{Kind: client.KindServerError, Message: client.MsgServerError}
	err := lc.Load(context.Background())
	assert.Error(t, err)
	assert.Equal(t, client.KindServerError, lc.ErrorKind())
	assert.Equal(t, []item{{ID: "1", Name: "a"}}, lc.Items())
	assert.False(t, lc.IsLoading())

	src.err = nil
	require.NoError(t, lc.Load(context.Background()))
	assert.NoError(t, lc.Err())
	assert.Empty(t, lc.ErrorKind())
}

func TestLoad_UnclassifiedError(t *testing.T) {
	src := &staticLister{err: errors.New("boom")}
	lc := NewListController[item]("Item", src, itemID, zerolog.Nop())
	assert.Error(t, lc.Load(context.Background()))
	assert.NotNil(t, lc.Items())
	assert.Empty(t, lc.Items())
}

func TestPatchAndRemove(t *testing.T) {
	src := &staticLister{items: []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}}
	lc := NewListController[item]("Item", src, itemID, zerolog.Nop())
	require.NoError(t, lc.Load(context.Background()))

	before := lc.Items()
	assert.True(t, lc.Patch("2", func(i item) item { i.Name = "B"; return i }))
	assert.False(t, lc.Patch("9", func(i item) item { t.Fatal("updater called for missing id"); return i }))

	got, ok := lc.Get("2")
	require.True(t, ok)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, "b", before[1].Name, "Items must return a copy")

	assert.True(t, lc.Remove("1"))
	assert.False(t, lc.Remove("1"))
	assert.Equal(t, 1, lc.Len())
}

func TestVisible(t *testing.T) {
	src := &staticLister{items: []item{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	lc := NewListController[item]("Item", src, itemID, zerolog.Nop())
	require.NoError(t, lc.Load(context.Background()))

	assert.Len(t, lc.Visible(2), 2)
	assert.Len(t, lc.Visible(0), 3)
	assert.Len(t, lc.Visible(10), 3)

	lc.Reset()
	assert.Zero(t, lc.Len())
}

func TestFilter(t *testing.T) {
	src := &staticLister{items: []item{{ID: "1", Name: "Acme"}, {ID: "2", Name: "Globex"}, {ID: "3", Name: "Acme West"}}}
	lc := NewListController[item]("Item", src, itemID, zerolog.Nop())
	require.NoError(t, lc.Load(context.Background()))

	assert.Len(t, lc.Filter("acme"), 3, "no matcher returns everything")

	var seen []string
	lc.SetMatcher(func(i item, q string) bool {
		seen = append(seen, q)
		return matchAny(q, i.Name)
	})

	got := lc.Filter("  ACME ")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Contains(t, seen, "acme")

	assert.Empty(t, lc.Filter("initech"))
	assert.Len(t, lc.Filter(""), 3)
	assert.Equal(t, 3, lc.Len(), "filtering leaves the collection intact")
}

func TestDescriptorMatch_Users(t *testing.T) {
	desc := userDescriptor(nil)
	ada := models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", CompanyName: "Analytical Engines"}

	for _, q := range []string{"ada", "lovelace", "example.com", "engines"} {
		assert.True(t, desc.Match(ada, q), q)
	}
	assert.False(t, desc.Match(ada, "babbage"))
	assert.False(t, desc.Match(models.User{FirstName: "Bob"}, "n/a"))
}
