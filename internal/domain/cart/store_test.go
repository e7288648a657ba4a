package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMirror records every mirror call so tests can assert that mirrored
// quantities are absolute, not deltas.
type recordingMirror struct {
	mu      sync.Mutex
	upserts []Line
	removes []LineKey
	clears  int
	fail    error
}

func (m *recordingMirror) Upsert(ctx context.Context, line Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.upserts = append(m.upserts, line)
	return nil
}

func (m *recordingMirror) Remove(ctx context.Context, key LineKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.removes = append(m.removes, key)
	return nil
}

func (m *recordingMirror) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.clears++
	return nil
}

func (m *recordingMirror) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts)
}

func (m *recordingMirror) lastUpsert() Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts[len(m.upserts)-1]
}

func variantID(id uint) *uint { return &id }

func TestStore_AddMergesByKey(t *testing.T) {
	sut := NewStore(nil, nil, nil)
	ctx := context.Background()

	sut.Add(ctx, Line{ProductID: 1, VariantID: variantID(7), Quantity: 1, Price: 35000})
	sut.Add(ctx, Line{ProductID: 1, VariantID: variantID(7), Quantity: 2, Price: 35000})

	require.Equal(t, 1, sut.Len())
	items := sut.Items()
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(105000), sut.TotalAmount())
}

func TestStore_DifferentVariantsAreDistinctLines(t *testing.T) {
	sut := NewStore(nil, nil, nil)
	ctx := context.Background()

	sut.Add(ctx, Line{ProductID: 1, VariantID: variantID(7), Quantity: 1, Price: 35000})
	sut.Add(ctx, Line{ProductID: 1, VariantID: variantID(8), Quantity: 1, Price: 37000})
	sut.Add(ctx, Line{ProductID: 2, Quantity: 1, Price: 5000})

	assert.Equal(t, 3, sut.Len())
	assert.Equal(t, 3, sut.TotalItems())
}

func TestStore_AddPreservesInsertionOrder(t *testing.T) {
	sut := NewStore(nil, nil, nil)
	ctx := context.Background()

	sut.Add(ctx, Line{ProductID: 3, Quantity: 1, Price: 100})
	sut.Add(ctx, Line{ProductID: 1, Quantity: 1, Price: 100})
	sut.Add(ctx, Line{ProductID: 2, Quantity: 1, Price: 100})
	sut.Add(ctx, Line{ProductID: 1, Quantity: 4, Price: 100}) // merge, no reorder

	items := sut.Items()
	require.Len(t, items, 3)
	assert.Equal(t, uint(3), items[0].ProductID)
	assert.Equal(t, uint(1), items[1].ProductID)
	assert.Equal(t, uint(2), items[2].ProductID)
	assert.Equal(t, 5, items[1].Quantity)
}

func TestStore_SetQuantityBelowOneRemoves(t *testing.T) {
	sut := NewStore([]Line{{ProductID: 1, Quantity: 3, Price: 100}}, nil, nil)
	ctx := context.Background()

	sut.SetQuantity(ctx, LineKey{ProductID: 1}, 0)

	assert.Equal(t, 0, sut.Len())
}

func TestStore_RemoveAbsentKeyIsNoOp(t *testing.T) {
	sut := NewStore([]Line{{ProductID: 1, Quantity: 1, Price: 100}}, nil, nil)
	ctx := context.Background()

	sut.Remove(ctx, LineKey{ProductID: 99})

	assert.Equal(t, 1, sut.Len())
}

func TestStore_MirrorReceivesAbsoluteQuantity(t *testing.T) {
	mirror := &recordingMirror{}
	sut := NewStore(nil, mirror, nil)
	ctx := context.Background()

	sut.Add(ctx, Line{ProductID: 1, Quantity: 1, Price: 35000})
	sut.Add(ctx, Line{ProductID: 1, Quantity: 2, Price: 35000})

	require.Eventually(t, func() bool {
		return mirror.upsertCount() == 2
	}, time.Second, 10*time.Millisecond)

	// The second mirror call carries the resulting quantity 3, not the delta 2
	assert.Equal(t, 3, mirror.lastUpsert().Quantity)
}

func TestStore_MirrorFailureKeepsLocalState(t *testing.T) {
	mirror := &recordingMirror{fail: errors.New("backing store unavailable")}
	sut := NewStore(nil, mirror, nil)
	ctx := context.Background()

	sut.Add(ctx, Line{ProductID: 1, Quantity: 2, Price: 35000})

	// Local state is the presented truth regardless of the mirror outcome
	require.Equal(t, 1, sut.Len())
	assert.Equal(t, 2, sut.TotalItems())
}

func TestStore_RemoveAndClearMirror(t *testing.T) {
	mirror := &recordingMirror{}
	sut := NewStore([]Line{
		{ProductID: 1, Quantity: 1, Price: 100},
		{ProductID: 2, Quantity: 1, Price: 200},
	}, mirror, nil)
	ctx := context.Background()

	sut.Remove(ctx, LineKey{ProductID: 1})
	sut.Clear(ctx)

	require.Eventually(t, func() bool {
		mirror.mu.Lock()
		defer mirror.mu.Unlock()
		return len(mirror.removes) == 1 && mirror.clears == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, sut.Len())
}

func TestStore_ReplaceDoesNotMirror(t *testing.T) {
	mirror := &recordingMirror{}
	sut := NewStore(nil, mirror, nil)

	sut.Replace([]Line{{ProductID: 1, Quantity: 5, Price: 100}})

	assert.Equal(t, 1, sut.Len())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, mirror.upsertCount())
}

func TestMergeLine_RefreshesPriceAndOptions(t *testing.T) {
	lines := []Line{{ProductID: 1, Quantity: 1, Price: 100}}

	lines = MergeLine(lines, Line{ProductID: 1, Quantity: 1, Price: 120})

	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(120), lines[0].Price)
}

func TestTotalsOf(t *testing.T) {
	totals := TotalsOf([]Line{
		{ProductID: 1, Quantity: 2, Price: 35000},
		{ProductID: 2, Quantity: 1, Price: 5000},
	})

	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, 3, totals.TotalQuantity)
	assert.Equal(t, int64(75000), totals.SubTotal)
}
