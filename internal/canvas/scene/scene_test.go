package scene

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

func testScene() *Scene {
	n := 0
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return New(
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		WithClock(func() time.Time { return clock }),
	)
}

func ptr[T any](v T) *T { return &v }

func TestBasicLifecycle(t *testing.T) {
	s := testScene()
	a, err := s.AddCard(Card{X: 0, Y: 0, Width: 280, Height: 160})
	require.NoError(t, err)
	b, err := s.AddCard(Card{X: 400, Y: 0, Width: 280, Height: 160})
	require.NoError(t, err)
	_, err = s.AddEdge(Edge{From: a.ID, FromSide: geom.SideRight, To: b.ID, ToSide: geom.SideLeft})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCard(a.ID))
	assert.Len(t, s.Cards(), 1)
	assert.Empty(t, s.Edges())
}

func TestAddCardSnapsAndDefaults(t *testing.T) {
	s := testScene()
	c, err := s.AddCard(Card{X: 13, Y: -11, Width: 280, Height: 160})
	require.NoError(t, err)
	assert.Equal(t, 24.0, c.X)
	assert.Equal(t, 0.0, c.Y)
	assert.Equal(t, 288.0, c.Width)
	assert.Equal(t, 168.0, c.Height)
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, ColorDefault, c.Color)

	d, err := s.AddCard(Card{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCardWidth, d.Width)
	assert.Equal(t, DefaultCardHeight, d.Height)

	_, err = s.AddCard(Card{Kind: "shape"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.AddCard(Card{ID: c.ID})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestUpdateCardRejectsSubMinimum(t *testing.T) {
	s := testScene()
	c, err := s.AddCard(Card{})
	require.NoError(t, err)
	rev := s.Revision()

	_, err = s.UpdateCard(c.ID, CardPatch{Width: ptr(90.0)})
	assert.ErrorIs(t, err, apperr.ErrInvalidGeometry)
	_, err = s.UpdateCard(c.ID, CardPatch{Height: ptr(40.0)})
	assert.ErrorIs(t, err, apperr.ErrInvalidGeometry)
	assert.Equal(t, rev, s.Revision(), "rejected update must not mutate")

	got, err := s.UpdateCard(c.ID, CardPatch{Height: ptr(60.0), Header: ptr("line\nbreak")})
	require.NoError(t, err)
	assert.Equal(t, 72.0, got.Height)
	assert.Equal(t, "line break", got.Header)

	_, err = s.UpdateCard("missing", CardPatch{})
	assert.ErrorIs(t, err, apperr.ErrUnknownCard)
}

func TestCascadeDeletion(t *testing.T) {
	s := testScene()
	var ids []string
	for i := 0; i < 4; i++ {
		c, err := s.AddCard(Card{X: float64(i) * 300})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	link := func(a, b string) string {
		e, err := s.AddEdge(Edge{From: a, FromSide: geom.SideRight, To: b, ToSide: geom.SideLeft})
		require.NoError(t, err)
		return e.ID
	}
	link(ids[0], ids[1])
	link(ids[2], ids[0])
	keep1 := link(ids[1], ids[2])
	keep2 := link(ids[2], ids[3])

	require.NoError(t, s.DeleteCard(ids[0]))
	var left []string
	for _, e := range s.Edges() {
		left = append(left, e.ID)
	}
	assert.ElementsMatch(t, []string{keep1, keep2}, left)
}

func TestAddEdgeRequiresEndpoints(t *testing.T) {
	s := testScene()
	a, _ := s.AddCard(Card{})
	_, err := s.AddEdge(Edge{From: a.ID, FromSide: geom.SideRight, To: "nope", ToSide: geom.SideLeft})
	assert.ErrorIs(t, err, apperr.ErrUnknownCard)
	_, err = s.AddEdge(Edge{From: a.ID, FromSide: "middle", To: a.ID, ToSide: geom.SideLeft})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.ErrorIs(t, s.DeleteEdge("nope"), apperr.ErrNotFound)
}

func TestDuplicateKeepsInternalEdgesOnly(t *testing.T) {
	s := testScene()
	a, _ := s.AddCard(Card{})
	b, _ := s.AddCard(Card{X: 400})
	c, _ := s.AddCard(Card{X: 800})
	_, err := s.AddEdge(Edge{From: a.ID, FromSide: geom.SideRight, To: b.ID, ToSide: geom.SideLeft})
	require.NoError(t, err)
	_, err = s.AddEdge(Edge{From: b.ID, FromSide: geom.SideRight, To: c.ID, ToSide: geom.SideLeft})
	require.NoError(t, err)

	dups := s.Duplicate([]string{a.ID, b.ID}, geom.Point{X: 48, Y: 48})
	require.Len(t, dups, 2)
	assert.Len(t, s.Cards(), 5)
	assert.Len(t, s.Edges(), 3)

	da, ok := s.Card(dups[0])
	require.True(t, ok)
	assert.Equal(t, a.X+48, da.X)
	assert.Equal(t, a.Y+48, da.Y)

	last := s.Edges()[2]
	assert.Equal(t, dups[0], last.From)
	assert.Equal(t, dups[1], last.To)
}

func TestFromDataDropsDangling(t *testing.T) {
	d := Data{
		Cards: []Card{{ID: "a", Kind: KindText, Width: 240, Height: 144}, {ID: "b", Width: 240, Height: 144}, {ID: "a"}},
		Edges: []Edge{
			{ID: "e1", From: "a", FromSide: geom.SideRight, To: "b", ToSide: geom.SideLeft},
			{ID: "e2", From: "a", FromSide: geom.SideRight, To: "ghost", ToSide: geom.SideLeft},
		},
	}
	s, dropped := FromData(d)
	assert.Equal(t, 2, dropped)
	assert.Len(t, s.Cards(), 2)
	require.Len(t, s.Edges(), 1)
	assert.Equal(t, "e1", s.Edges()[0].ID)
	assert.Equal(t, KindText, s.Cards()[1].Kind)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := testScene()
	c, _ := s.AddCard(Card{Header: "before"})
	snap := s.Snapshot()
	_, err := s.UpdateCard(c.ID, CardPatch{Header: ptr("after")})
	require.NoError(t, err)
	assert.Equal(t, "before", snap.Cards[0].Header)

	s.Restore(snap)
	got, _ := s.Card(c.ID)
	assert.Equal(t, "before", got.Header)
}

func TestZOrder(t *testing.T) {
	s := testScene()
	a, _ := s.AddCard(Card{})
	b, _ := s.AddCard(Card{Kind: KindGroup})
	require.NoError(t, s.SendToBack(b.ID))
	assert.Equal(t, b.ID, s.Cards()[0].ID)
	require.NoError(t, s.BringToFront(b.ID))
	assert.Equal(t, []string{a.ID, b.ID}, []string{s.Cards()[0].ID, s.Cards()[1].ID})
}

func TestAutoGrow(t *testing.T) {
	s := testScene()
	c, _ := s.AddCard(Card{Width: 240, Height: 96})
	grew, err := s.AutoGrow(c.ID)
	require.NoError(t, err)
	assert.False(t, grew)

	_, err = s.UpdateCard(c.ID, CardPatch{Body: ptr("one\ntwo\nthree\nfour\nfive")})
	require.NoError(t, err)
	grew, err = s.AutoGrow(c.ID)
	require.NoError(t, err)
	assert.True(t, grew)
	got, _ := s.Card(c.ID)
	assert.Equal(t, ContentHeight(got), got.Height)
	assert.Greater(t, got.Height, 96.0)

	g, _ := s.AddCard(Card{Kind: KindGroup, Body: "a\nb\nc\nd\ne\nf", Height: 72})
	grew, _ = s.AutoGrow(g.ID)
	assert.False(t, grew, "groups never auto-grow")
}

func TestResizeCardKeepsGivenSize(t *testing.T) {
	s := testScene()
	c, err := s.AddCard(Card{X: 0, Y: 0, Width: 240, Height: 144})
	require.NoError(t, err)

	got, err := s.ResizeCard(c.ID, geom.Rect{X: 1, Y: -47, W: 240, H: 247})
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{X: 0, Y: -48, W: 240, H: 247}, got.Box())

	_, err = s.ResizeCard(c.ID, geom.Rect{W: 240, H: 40})
	assert.ErrorIs(t, err, apperr.ErrInvalidGeometry)
	_, err = s.ResizeCard("missing", geom.Rect{W: 240, H: 144})
	assert.ErrorIs(t, err, apperr.ErrUnknownCard)

	cur, _ := s.Card(c.ID)
	assert.Equal(t, 247.0, cur.Height, "rejected resize leaves the card alone")
}
