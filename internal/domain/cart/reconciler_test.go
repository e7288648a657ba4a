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

// remoteCart is an in-memory stand-in for the remote cart service
type remoteCart struct {
	mu        sync.Mutex
	lines     []Line
	syncCalls int
	syncErr   error
	block     chan struct{} // when set, sync blocks until closed
}

func (r *remoteCart) fetch(ctx context.Context) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...), nil
}

func (r *remoteCart) sync(ctx context.Context, lines []Line) ([]Line, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncCalls++
	if r.syncErr != nil {
		return nil, r.syncErr
	}
	for _, line := range lines {
		r.lines = MergeLine(r.lines, line)
	}
	return append([]Line(nil), r.lines...), nil
}

func existsAlways(uint) bool { return true }

func TestReconcile_DisjointKeysYieldSumOfLines(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 2, Price: 35000},
		{ProductID: 2, Quantity: 1, Price: 5000},
	}, nil, nil)
	remote := &remoteCart{lines: []Line{
		{ProductID: 3, Quantity: 1, Price: 12000},
	}}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	merged, err := sut.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Len(t, merged, 3)
	assert.Len(t, local.Items(), 3) // local adopted the authoritative cart
}

func TestReconcile_OverlappingKeysSumQuantities(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 2, Price: 35000},
	}, nil, nil)
	remote := &remoteCart{lines: []Line{
		{ProductID: 1, Quantity: 3, Price: 35000},
	}}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	merged, err := sut.Reconcile(context.Background())

	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Quantity)
}

func TestReconcile_EmptyLocalAdoptsRemote(t *testing.T) {
	local := NewStore(nil, nil, nil)
	remote := &remoteCart{lines: []Line{
		{ProductID: 1, Quantity: 1, Price: 35000},
	}}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	merged, err := sut.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Len(t, merged, 1)
	assert.Equal(t, 0, remote.syncCalls) // nothing to merge, no sync round trip
	assert.Len(t, local.Items(), 1)
}

func TestReconcile_LocalDiscardedEvenOnSyncFailure(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 2, Price: 35000},
	}, nil, nil)
	remote := &remoteCart{syncErr: errors.New("cart service unavailable")}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	_, err := sut.Reconcile(context.Background())

	require.Error(t, err)
	// A retried reconciliation must never double-apply local items
	assert.Equal(t, 0, local.Len())
}

func TestReconcile_SecondRunAfterFailureDoesNotDoubleApply(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 2, Price: 35000},
	}, nil, nil)
	remote := &remoteCart{syncErr: errors.New("transient")}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	_, err := sut.Reconcile(context.Background())
	require.Error(t, err)

	remote.syncErr = nil
	merged, err := sut.Reconcile(context.Background())

	require.NoError(t, err)
	// Local was discarded on the first run; the retry had nothing to merge
	assert.Len(t, merged, 0)
	assert.Equal(t, 1, remote.syncCalls)
}

func TestReconcile_SingleFlight(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 1, Price: 35000},
	}, nil, nil)
	remote := &remoteCart{block: make(chan struct{})}
	sut := NewReconciler(local, remote.fetch, remote.sync, existsAlways, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := sut.Reconcile(context.Background())
		firstDone <- err
	}()

	// Wait until the first run is parked inside sync, then trigger again
	require.Eventually(t, func() bool {
		return sut.inFlight.Load()
	}, time.Second, time.Millisecond)

	_, err := sut.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrReconcileInFlight)

	close(remote.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, remote.syncCalls)
}

func TestReconcile_DropsLinesForDeletedProducts(t *testing.T) {
	local := NewStore([]Line{
		{ProductID: 1, Quantity: 1, Price: 35000},
		{ProductID: 2, Quantity: 1, Price: 5000},
	}, nil, nil)
	remote := &remoteCart{}
	exists := func(productID uint) bool { return productID != 2 }
	sut := NewReconciler(local, remote.fetch, remote.sync, exists, nil)

	merged, err := sut.Reconcile(context.Background())

	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, uint(1), merged[0].ProductID)
}
