package cart

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddIncrementsExistingLine(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add("p1", 10, "Pen", "pen.jpg"))
	require.NoError(t, c.Add(" p1 ", 99, "Other", ""))
	require.NoError(t, c.Add("p2", 5.5, "Eraser", ""))

	want := []Line{
		{ProductID: "p1", Name: "Pen", UnitPrice: 10, ImageRef: "pen.jpg", Quantity: 2},
		{ProductID: "p2", Name: "Eraser", UnitPrice: 5.5, Quantity: 1},
	}
	if diff := cmp.Diff(want, c.Lines()); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, c.TotalItemCount())
	assert.InDelta(t, 25.5, c.TotalPrice(), 1e-9)
}

func TestCart_AddRejectsInvalid(t *testing.T) {
	c := New(nil)
	assert.ErrorIs(t, c.Add(" ", 1, "x", ""), ErrInvalidLine)
	assert.ErrorIs(t, c.Add("p1", -1, "x", ""), ErrInvalidLine)
	assert.True(t, c.IsEmpty())
}

func TestCart_ChangeQuantity(t *testing.T) {
	c := New([]Line{{ProductID: "p1", UnitPrice: 1, Quantity: 2}})

	assert.False(t, c.ChangeQuantity("p1", 0))
	assert.False(t, c.ChangeQuantity("missing", 1))
	assert.True(t, c.ChangeQuantity("p1", 3))
	l, ok := c.Find("p1")
	require.True(t, ok)
	assert.Equal(t, 5, l.Quantity)

	assert.True(t, c.ChangeQuantity("p1", -5))
	assert.True(t, c.IsEmpty(), "dropping to zero removes the line")
}

func TestCart_QuantityNeverWraps(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add("1", 10, "Pen", ""))
	require.NoError(t, c.Add("1", 10, "Pen", ""))

	assert.True(t, c.ChangeQuantity("1", math.MaxInt))
	l, ok := c.Find("1")
	require.True(t, ok, "a positive delta must not remove the line")
	assert.Equal(t, math.MaxInt, l.Quantity)

	assert.False(t, c.ChangeQuantity("1", 1), "already at the ceiling")
	assert.ErrorIs(t, c.Add("1", 10, "Pen", ""), ErrInvalidLine)
	l, _ = c.Find("1")
	assert.Equal(t, math.MaxInt, l.Quantity)

	assert.True(t, c.ChangeQuantity("1", math.MinInt))
	assert.True(t, c.IsEmpty())

	merged := Normalize([]Line{
		{ProductID: "a", UnitPrice: 1, Quantity: math.MaxInt},
		{ProductID: "a", UnitPrice: 1, Quantity: 5},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, math.MaxInt, merged[0].Quantity)
	assert.Equal(t, math.MaxInt, TotalItemCount(append(merged, Line{ProductID: "b", Quantity: 1})))
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New([]Line{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}})
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.NotNil(t, c.Lines())
	assert.Empty(t, c.Lines())
}

func TestNormalize(t *testing.T) {
	got := Normalize([]Line{
		{ProductID: " a ", UnitPrice: 2, Quantity: 1},
		{ProductID: "", UnitPrice: 2, Quantity: 1},
		{ProductID: "b", UnitPrice: -1, Quantity: 1},
		{ProductID: "c", UnitPrice: 1, Quantity: 0},
		{ProductID: "a", UnitPrice: 3, Quantity: 2},
	})
	want := []Line{{ProductID: "a", UnitPrice: 2, Quantity: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestCart_LinesIsACopy(t *testing.T) {
	c := New([]Line{{ProductID: "a", Quantity: 1}})
	lines := c.Lines()
	lines[0].Quantity = 42
	l, _ := c.Find("a")
	assert.Equal(t, 1, l.Quantity)

	c.Replace([]Line{{ProductID: "z", Quantity: 2}})
	assert.Equal(t, 2, c.TotalItemCount())
	assert.NotNil(t, Clone(nil))
}
