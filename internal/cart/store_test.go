package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPersister struct {
	saves int
}

func (f *failingPersister) Load(context.Context, string) ([]Item, error) {
	return nil, errors.New("storage unavailable")
}

func (f *failingPersister) Save(context.Context, string, []Item) error {
	f.saves++
	return errors.New("storage unavailable")
}

func (f *failingPersister) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}

func item(id string, price int64) Item {
	return Item{ID: id, Name: "product " + id, Price: decimal.NewFromInt(price), Image: id + ".png"}
}

func TestAdd_SameIDTwiceMergesIntoOneLine(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)

	s.Add(ctx, item("a", 100))
	s.Add(ctx, item("a", 100))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAdd_IgnoresIncomingQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)

	it := item("a", 10)
	it.Quantity = 7
	s.Add(ctx, it)
	s.Add(ctx, it)

	assert.Equal(t, 2, s.Items()[0].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)

	s.Add(ctx, item("c", 1))
	s.Add(ctx, item("a", 1))
	s.Add(ctx, item("b", 1))
	s.Add(ctx, item("a", 1))

	var ids []string
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, item("a", 1))
	s.Add(ctx, item("b", 1))

	before := s.Len()
	s.SetQuantity(ctx, "a", 0)

	assert.Equal(t, before-1, s.Len())
	assert.Equal(t, "b", s.Items()[0].ID)
}

func TestSetQuantity_NegativeRemovesAndPositiveReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, item("a", 1))
	s.Add(ctx, item("b", 1))

	s.SetQuantity(ctx, "b", 5)
	s.SetQuantity(ctx, "a", -3)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, 5, items[0].Quantity)

	s.SetQuantity(ctx, "missing", 4)
	assert.Equal(t, 1, s.Len())
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, item("a", 1))

	s.Remove(ctx, "zzz")
	assert.Equal(t, 1, s.Len())

	s.Remove(ctx, "a")
	assert.Equal(t, 0, s.Len())
}

func TestTotal(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)

	s.Add(ctx, item("A", 100))
	s.Add(ctx, item("A", 100))
	s.Add(ctx, item("B", 50))

	assert.True(t, s.Total().Equal(decimal.NewFromInt(250)), "got %s", s.Total())
}

func TestTotal_DecimalPrices(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, Item{ID: "x", Price: decimal.RequireFromString("0.10")})
	s.SetQuantity(ctx, "x", 3)

	assert.Equal(t, "0.3", s.Total().String())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, item("a", 1))
	s.Add(ctx, item("b", 1))

	s.Clear(ctx)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Total().IsZero())
}

func TestItems_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)
	s.Add(ctx, item("a", 1))

	items := s.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestPersistFailure_KeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	p := &failingPersister{}
	s := NewStore("s1", p)

	s.Add(ctx, item("a", 10))
	s.Add(ctx, item("a", 10))

	assert.Equal(t, 2, p.saves)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 2, s.Items()[0].Quantity)
}

func TestSubscribe_NotifiedOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	s := NewStore("s1", nil)

	var snapshots [][]Item
	unsubscribe := s.Subscribe(func(items []Item) {
		snapshots = append(snapshots, items)
	})

	s.Add(ctx, item("a", 1))
	s.Remove(ctx, "absent")
	s.SetQuantity(ctx, "a", 3)

	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0][0].Quantity)
	assert.Equal(t, 3, snapshots[1][0].Quantity)

	unsubscribe()
	s.Clear(ctx)
	assert.Len(t, snapshots, 2)
}

func TestRestore_DropsInvalidLines(t *testing.T) {
	s := NewStore("s1", nil)
	a := item("a", 1)
	a.Quantity = 2
	zero := item("z", 1)
	dup := item("a", 1)
	dup.Quantity = 5

	s.Restore([]Item{a, zero, dup})

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}
