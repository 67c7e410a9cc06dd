package control

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

type fakeLayer struct {
	key     string
	z       int
	opacity float64
	mapName string
}

func (l *fakeLayer) Key() string          { return l.key }
func (l *fakeLayer) ZIndex() int          { return l.z }
func (l *fakeLayer) SetZIndex(z int)      { l.z = z }
func (l *fakeLayer) Opacity() float64     { return l.opacity }
func (l *fakeLayer) SetOpacity(v float64) { l.opacity = v }
func (l *fakeLayer) MapName() string      { return l.mapName }

// plainLayer has no optional capabilities.
type plainLayer struct{ key string }

func (l *plainLayer) Key() string { return l.key }

type fakeHost struct {
	mu      sync.Mutex
	active  map[string]bool
	ops     []string
	maxBase int
	bases   map[string]bool
}

func newFakeHost(bases ...string) *fakeHost {
	h := &fakeHost{active: map[string]bool{}, bases: map[string]bool{}}
	for _, b := range bases {
		h.bases[b] = true
	}
	return h
}

func (h *fakeHost) HasLayer(l Layer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active[l.Key()]
}

func (h *fakeHost) AddLayer(l Layer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active[l.Key()] = true
	h.ops = append(h.ops, "add "+l.Key())
	n := 0
	for k := range h.active {
		if h.bases[k] {
			n++
		}
	}
	h.maxBase = max(h.maxBase, n)
}

func (h *fakeHost) RemoveLayer(l Layer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, l.Key())
	h.ops = append(h.ops, "remove "+l.Key())
}

type fakeFetcher struct {
	got []mapservice.LegendOptions
}

func (f *fakeFetcher) LegendForMap(ctx context.Context, o mapservice.LegendOptions) (*mapservice.LegendResponse, error) {
	f.got = append(f.got, o)
	return &mapservice.LegendResponse{Legends: []mapservice.LegendGroup{{Title: o.MapName}}}, nil
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func zs(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ZIndex
	}
	return out
}

func TestRenderSortsOverlaysWithStableTies(t *testing.T) {
	overlays := []Named{
		{Name: "a", Layer: &fakeLayer{key: "a", z: 2}},
		{Name: "b", Layer: &fakeLayer{key: "b", z: 1}},
		{Name: "c", Layer: &fakeLayer{key: "c", z: 2}},
	}

	opts := DefaultOptions()
	c := New(newFakeHost(), nil, opts, nil, overlays)
	assert.Equal(t, []string{"b", "a", "c"}, names(c.Render().Overlays))

	opts.InverseOrder = true
	c = New(newFakeHost(), nil, opts, nil, overlays)
	assert.Equal(t, []string{"a", "c", "b"}, names(c.Render().Overlays))
}

func TestBaseLayersKeepRegistrationOrder(t *testing.T) {
	base := []Named{
		{Name: "Streets", Layer: &plainLayer{key: "streets"}},
		{Name: "Aerial", Layer: &plainLayer{key: "aerial"}},
		{Name: "Topo", Layer: &plainLayer{key: "topo"}},
	}
	h := newFakeHost()
	h.active["aerial"] = true
	c := New(h, nil, DefaultOptions(), base, nil)

	v := c.Render()
	assert.Equal(t, []string{"Streets", "Aerial", "Topo"}, names(v.Base))
	assert.False(t, v.Base[0].Checked)
	assert.True(t, v.Base[1].Checked)
	assert.True(t, v.ShowBase)
	assert.False(t, v.ShowOverlays)
	assert.False(t, v.ShowSeparator)
}

func TestSectionsAndSeparator(t *testing.T) {
	opts := DefaultOptions()
	opts.HideSingleBase = true
	base := []Named{{Name: "Streets", Layer: &plainLayer{key: "streets"}}}
	overlays := []Named{{Name: "Roads", Layer: &fakeLayer{key: "roads"}}}

	v := New(newFakeHost(), nil, opts, base, overlays).Render()
	assert.False(t, v.ShowBase, "single base layer hidden")
	assert.True(t, v.ShowOverlays)
	assert.False(t, v.ShowSeparator)

	opts.HideSingleBase = false
	v = New(newFakeHost(), nil, opts, base, overlays).Render()
	assert.True(t, v.ShowSeparator)

	v = New(newFakeHost(), nil, opts, nil, nil).Render()
	assert.False(t, v.ShowBase)
	assert.False(t, v.ShowOverlays)
	assert.NotNil(t, v.Overlays)
}

func TestAutoZIndex(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoZIndex = true
	a, b := &fakeLayer{key: "a", z: 40}, &fakeLayer{key: "b"}
	noZ := &plainLayer{key: "p"}

	c := New(newFakeHost(), nil, opts, nil, []Named{{"a", a}, {"b", b}})
	assert.Equal(t, 1, a.z)
	assert.Equal(t, 2, b.z)

	id := c.Register(noZ, "p", true)
	e, ok := c.Entry(id)
	require.True(t, ok)
	assert.Equal(t, 3, e.ZIndex)
	assert.Equal(t, ZIndexTracker{Min: 1, Max: 3}, c.Tracker())
}

func TestAdoptedZIndexExtendsTracker(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(), nil, []Named{
		{"a", &fakeLayer{key: "a", z: 5}},
		{"b", &fakeLayer{key: "b", z: 7}},
	})
	assert.Equal(t, ZIndexTracker{Min: 5, Max: 7}, c.Tracker())

	c.Register(&fakeLayer{key: "c", z: 2}, "c", true)
	assert.Equal(t, ZIndexTracker{Min: 2, Max: 7}, c.Tracker())

	empty := New(newFakeHost(), nil, DefaultOptions(), nil, nil)
	assert.Equal(t, ZIndexTracker{Min: 1, Max: 0}, empty.Tracker())
}

func TestMoveSwapsWithAdjacentOverlay(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoZIndex = true
	a, b, c3 := &fakeLayer{key: "a"}, &fakeLayer{key: "b"}, &fakeLayer{key: "c"}
	c := New(newFakeHost(), nil, opts, nil, []Named{{"a", a}, {"b", b}, {"c", c3}})
	idA, _ := c.IDForKey("a")

	moved, err := c.MoveUp(idA)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, a.z)
	assert.Equal(t, 1, b.z)
	assert.Equal(t, []string{"b", "a", "c"}, names(c.Render().Overlays))

	moved, err = c.MoveUp(idA)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"b", "c", "a"}, names(c.Render().Overlays))

	// at the top already
	moved, err = c.MoveUp(idA)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 3, a.z)

	idB, _ := c.IDForKey("b")
	moved, err = c.MoveDown(idB)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, b.z)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, names(c.Render().Overlays))
}

func TestMoveToleratesGaps(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(), nil, []Named{
		{"a", &fakeLayer{key: "a", z: 1}},
		{"b", &fakeLayer{key: "b", z: 3}},
	})
	idA, _ := c.IDForKey("a")
	moved, err := c.MoveUp(idA)
	require.NoError(t, err)
	assert.False(t, moved, "no overlay at z=2")
}

func TestMoveErrors(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(),
		[]Named{{"base", &plainLayer{key: "base"}}}, nil)

	_, err := c.MoveUp("nope")
	assert.ErrorIs(t, err, ErrUnknownLayerID)

	id, _ := c.IDForKey("base")
	_, err = c.MoveDown(id)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestMoveDisplayedFollowsInverseOrder(t *testing.T) {
	for _, inverse := range []bool{false, true} {
		opts := DefaultOptions()
		opts.AutoZIndex = true
		opts.InverseOrder = inverse
		a, b := &fakeLayer{key: "a"}, &fakeLayer{key: "b"}
		c := New(newFakeHost(), nil, opts, nil, []Named{{"a", a}, {"b", b}})

		before := names(c.Render().Overlays)
		bottomID, _ := c.IDForKey(before[1])
		moved, err := c.MoveDisplayed(bottomID, Up)
		require.NoError(t, err)
		assert.True(t, moved)

		after := names(c.Render().Overlays)
		assert.Equal(t, []string{before[1], before[0]}, after, "inverse=%v", inverse)
	}
}

func TestButtonsDisabledAtBoundary(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoZIndex = true
	c := New(newFakeHost(), nil, opts, nil, []Named{
		{"a", &fakeLayer{key: "a"}},
		{"b", &fakeLayer{key: "b"}},
		{"c", &fakeLayer{key: "c"}},
	})

	rows := c.Render().Overlays
	require.Equal(t, []int{1, 2, 3}, zs(rows))

	// ascending: the top row is the lowest z-index
	assert.Equal(t, []Button{{Up, true}, {Down, false}}, rows[0].Buttons)
	assert.Equal(t, []Button{{Up, false}, {Down, false}}, rows[1].Buttons)
	assert.Equal(t, []Button{{Up, false}, {Down, true}}, rows[2].Buttons)

	opts.InverseOrder = true
	c = New(newFakeHost(), nil, opts, nil, []Named{
		{"a", &fakeLayer{key: "a"}},
		{"b", &fakeLayer{key: "b"}},
	})
	rows = c.Render().Overlays
	require.Equal(t, []int{2, 1}, zs(rows))
	assert.Equal(t, []Button{{Up, true}, {Down, false}}, rows[0].Buttons)
	assert.Equal(t, []Button{{Up, false}, {Down, true}}, rows[1].Buttons)

	opts.ZIndexControls = false
	c = New(newFakeHost(), nil, opts, nil, []Named{{"a", &fakeLayer{key: "a"}}})
	assert.Nil(t, c.Render().Overlays[0].Buttons)
}

func TestSwitchBaseLayerRemovesBeforeAdding(t *testing.T) {
	h := newFakeHost("a", "b")
	h.active["a"] = true
	c := New(h, nil, DefaultOptions(), []Named{
		{"A", &plainLayer{key: "a"}},
		{"B", &plainLayer{key: "b"}},
	}, nil)
	idB, _ := c.IDForKey("b")

	require.NoError(t, c.SetVisibility(idB, true))
	assert.Equal(t, []string{"remove a", "add b"}, h.ops)
	assert.Equal(t, 1, h.maxBase)

	v := c.Render()
	assert.False(t, v.Base[0].Checked)
	assert.True(t, v.Base[1].Checked)
}

func TestApplyVisibilityBatchOrder(t *testing.T) {
	h := newFakeHost()
	h.active["o2"] = true
	c := New(h, nil, DefaultOptions(), nil, []Named{
		{"o1", &fakeLayer{key: "o1", z: 1}},
		{"o2", &fakeLayer{key: "o2", z: 2}},
		{"o3", &fakeLayer{key: "o3", z: 3}},
	})
	id1, _ := c.IDForKey("o1")
	id2, _ := c.IDForKey("o2")
	id3, _ := c.IDForKey("o3")

	require.NoError(t, c.ApplyVisibility(map[string]bool{id1: true, id2: false, id3: true}))
	require.Len(t, h.ops, 3)
	assert.Equal(t, "remove o2", h.ops[0])
	assert.ElementsMatch(t, []string{"add o1", "add o3"}, h.ops[1:])
}

func TestApplyVisibilityUnknownIDAppliesNothing(t *testing.T) {
	h := newFakeHost()
	c := New(h, nil, DefaultOptions(), nil, []Named{{"o1", &fakeLayer{key: "o1"}}})
	id1, _ := c.IDForKey("o1")

	err := c.ApplyVisibility(map[string]bool{id1: true, "ghost": true})
	assert.ErrorIs(t, err, ErrUnknownLayerID)
	assert.Empty(t, h.ops)
}

func TestApplyVisibilityRejectsTwoBaseLayers(t *testing.T) {
	h := newFakeHost("a", "b")
	c := New(h, nil, DefaultOptions(), []Named{
		{"A", &plainLayer{key: "a"}},
		{"B", &plainLayer{key: "b"}},
	}, nil)
	idA, _ := c.IDForKey("a")
	idB, _ := c.IDForKey("b")

	err := c.ApplyVisibility(map[string]bool{idA: true, idB: true})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, h.ops)
	assert.Equal(t, 0, h.maxBase)

	require.NoError(t, c.ApplyVisibility(map[string]bool{idA: false, idB: true}))
	assert.Equal(t, []string{"add b"}, h.ops)
	assert.Equal(t, 1, h.maxBase)
}

func TestRegisterSameKeyKeepsEntry(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(), nil, []Named{{"a", &fakeLayer{key: "a", z: 1}}})
	id, _ := c.IDForKey("a")
	n := 0
	c.OnChange(func() { n++ })

	again := c.Register(&fakeLayer{key: "a", z: 5}, "a again", true)
	assert.Equal(t, id, again)
	assert.Equal(t, 0, n)
	require.Len(t, c.Render().Overlays, 1)
	assert.Equal(t, "a", c.Render().Overlays[0].Name)
	assert.Equal(t, ZIndexTracker{Min: 1, Max: 1}, c.Tracker())

	require.NoError(t, c.Remove(id))
	assert.Empty(t, c.Render().Overlays)
}

func TestSetOpacity(t *testing.T) {
	l := &fakeLayer{key: "o", opacity: 1}
	c := New(newFakeHost(), nil, DefaultOptions(), []Named{{"base", &plainLayer{key: "base"}}}, []Named{{"o", l}})
	id, _ := c.IDForKey("o")

	ok, err := c.SetOpacity(id, "0.25")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.25, l.opacity)

	for _, raw := range []string{"", "abc", "NaN", "Inf", "-Inf", "0.5.1"} {
		ok, err = c.SetOpacity(id, raw)
		require.NoError(t, err, raw)
		assert.False(t, ok, raw)
	}
	assert.Equal(t, 0.25, l.opacity)

	baseID, _ := c.IDForKey("base")
	ok, err = c.SetOpacity(baseID, "0.5")
	require.NoError(t, err)
	assert.False(t, ok, "layer without opacity")

	_, err = c.SetOpacity("ghost", "0.5")
	assert.ErrorIs(t, err, ErrUnknownLayerID)

	row := c.Render().Overlays[0]
	assert.True(t, row.HasOpacity)
	assert.Equal(t, 0.25, row.Opacity)
}

func TestToggleLegend(t *testing.T) {
	f := &fakeFetcher{}
	c := New(newFakeHost(), f, DefaultOptions(), nil, []Named{
		{"World", &fakeLayer{key: "w", mapName: "World"}},
		{"Plain", &plainLayer{key: "p"}},
	})
	id, _ := c.IDForKey("w")

	legend, err := c.ToggleLegend(id)
	require.NoError(t, err)
	require.NotNil(t, legend)
	assert.Equal(t, "World", legend.MapName)
	assert.Empty(t, f.got, "legend is lazy")
	assert.True(t, c.Render().Overlays[0].LegendOpen)

	open, ok := c.OpenLegend(id)
	require.True(t, ok)
	assert.Same(t, legend, open)

	resp, err := legend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "World", resp.Legends[0].Title)
	require.Len(t, f.got, 1)
	assert.Equal(t, 16, f.got[0].Width)
	require.NotNil(t, f.got[0].InlineSwatch)
	assert.True(t, *f.got[0].InlineSwatch)

	legend, err = c.ToggleLegend(id)
	require.NoError(t, err)
	assert.Nil(t, legend, "second toggle closes")
	_, ok = c.OpenLegend(id)
	assert.False(t, ok)

	plainID, _ := c.IDForKey("p")
	_, err = c.ToggleLegend(plainID)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = c.ToggleLegend("ghost")
	assert.ErrorIs(t, err, ErrUnknownLayerID)
}

func TestSharedLegendReplaces(t *testing.T) {
	opts := DefaultOptions()
	opts.SharedLegend = true
	c := New(newFakeHost(), &fakeFetcher{}, opts, nil, []Named{
		{"World", &fakeLayer{key: "w", mapName: "World", z: 1}},
		{"Europe", &fakeLayer{key: "e", mapName: "Europe", z: 2}},
	})
	idW, _ := c.IDForKey("w")
	idE, _ := c.IDForKey("e")

	l1, err := c.ToggleLegend(idW)
	require.NoError(t, err)
	l2, err := c.ToggleLegend(idE)
	require.NoError(t, err)
	assert.Equal(t, "Europe", l2.MapName)
	assert.NotSame(t, l1, l2)

	shared, ok := c.OpenLegend("")
	require.True(t, ok)
	assert.Same(t, l2, shared)
	assert.Equal(t, idE, c.Render().SharedLegend)

	closed, err := c.ToggleLegend(idE)
	require.NoError(t, err)
	assert.Nil(t, closed, "owning row closes the shared legend")
	_, ok = c.OpenLegend("")
	assert.False(t, ok)
	v := c.Render()
	assert.Empty(t, v.SharedLegend)
	for _, r := range v.Overlays {
		assert.False(t, r.LegendOpen, r.Name)
	}
}

func TestLoadedLegendSurvivesRerender(t *testing.T) {
	c := New(newFakeHost(), &fakeFetcher{}, DefaultOptions(), nil, []Named{
		{"World", &fakeLayer{key: "w", mapName: "World", z: 1}},
		{"Europe", &fakeLayer{key: "e", mapName: "Europe", z: 2}},
	})
	n := 0
	c.OnChange(func() { n++ })
	id, _ := c.IDForKey("w")

	legend, err := c.ToggleLegend(id)
	require.NoError(t, err)
	assert.Nil(t, c.Render().Overlays[0].Legend, "nothing loaded yet")

	_, err = legend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "loading re-renders")

	moved, err := c.MoveUp(id)
	require.NoError(t, err)
	require.True(t, moved)

	v := c.Render()
	require.Equal(t, []string{"Europe", "World"}, names(v.Overlays))
	world := v.Overlays[1]
	assert.True(t, world.LegendOpen)
	require.NotNil(t, world.Legend)
	assert.Equal(t, "World", world.Legend.Legends[0].Title)
	assert.Nil(t, v.Overlays[0].Legend)

	_, err = c.ToggleLegend(id)
	require.NoError(t, err)
	assert.Nil(t, c.Render().Overlays[1].Legend)
}

func TestSharedLegendRowsInView(t *testing.T) {
	opts := DefaultOptions()
	opts.SharedLegend = true
	c := New(newFakeHost(), &fakeFetcher{}, opts, nil, []Named{{"World", &fakeLayer{key: "w", mapName: "World"}}})
	id, _ := c.IDForKey("w")

	legend, err := c.ToggleLegend(id)
	require.NoError(t, err)
	_, err = legend.Load(context.Background())
	require.NoError(t, err)

	v := c.Render()
	require.NotNil(t, v.SharedRows)
	assert.Equal(t, "World", v.SharedRows.Legends[0].Title)
	assert.Nil(t, v.Overlays[0].Legend)
}

func TestPanelStateMachine(t *testing.T) {
	opts := DefaultOptions()
	c := New(newFakeHost(), nil, opts, nil, nil)
	assert.Equal(t, Expanded, c.State())
	s, err := c.HandlePanelEvent(MapClick)
	require.NoError(t, err)
	assert.Equal(t, Expanded, s, "not collapsible")

	opts.Collapsed = true
	c = New(newFakeHost(), nil, opts, nil, nil)
	assert.Equal(t, Collapsed, c.State())

	steps := []struct {
		ev   PanelEvent
		want PanelState
	}{
		{PointerEnter, Expanded},
		{PointerLeave, Collapsed},
		{ToggleFocus, Expanded},
		{MapClick, Collapsed},
		{ToggleClick, Collapsed},
	}
	for _, st := range steps {
		s, err := c.HandlePanelEvent(st.ev)
		require.NoError(t, err)
		assert.Equal(t, st.want, s, st.ev)
	}

	opts.Device = DeviceTouch
	c = New(newFakeHost(), nil, opts, nil, nil)
	s, _ = c.HandlePanelEvent(PointerEnter)
	assert.Equal(t, Collapsed, s)
	s, _ = c.HandlePanelEvent(ToggleClick)
	assert.Equal(t, Expanded, s)
	s, _ = c.HandlePanelEvent(MapClick)
	assert.Equal(t, Collapsed, s)

	_, err = c.HandlePanelEvent("wiggle")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestChangeNotifications(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(), nil, []Named{{"a", &fakeLayer{key: "a"}}})
	n := 0
	c.OnChange(func() { n++ })

	assert.True(t, c.HandleLayerEvent("a"))
	assert.False(t, c.HandleLayerEvent("unregistered"))
	assert.Equal(t, 1, n)

	id, _ := c.IDForKey("a")
	require.NoError(t, c.Remove(id))
	assert.Equal(t, 2, n)
	assert.False(t, c.HandleLayerEvent("a"))
	assert.ErrorIs(t, c.Remove(id), ErrUnknownLayerID)
}

func TestRemoveRecomputesTracker(t *testing.T) {
	c := New(newFakeHost(), nil, DefaultOptions(), nil, []Named{
		{"a", &fakeLayer{key: "a", z: 1}},
		{"b", &fakeLayer{key: "b", z: 2}},
	})
	id, _ := c.IDForKey("b")
	require.NoError(t, c.Remove(id))
	assert.Equal(t, ZIndexTracker{Min: 1, Max: 1}, c.Tracker())

	c.Close()
	assert.Empty(t, c.Render().Overlays)
	assert.Equal(t, ZIndexTracker{Min: 1, Max: 0}, c.Tracker())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("UP")
	require.NoError(t, err)
	assert.Equal(t, Up, d)
	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
