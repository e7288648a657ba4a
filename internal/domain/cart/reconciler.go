// internal/domain/cart/reconciler.go
package cart

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrReconcileInFlight is returned when a reconciliation is already running
// for this transition, e.g. from rapid re-triggering on login.
var ErrReconcileInFlight = errors.New("cart reconciliation already in flight")

// FetchFunc retrieves the authoritative remote cart
type FetchFunc func(ctx context.Context) ([]Line, error)

// SyncFunc merges the given local lines into the remote cart, using the same
// dedup-by-key add semantics as the cart store, and returns the resulting
// authoritative cart.
type SyncFunc func(ctx context.Context, lines []Line) ([]Line, error)

// ProductExistsFunc reports whether the referenced product still exists
type ProductExistsFunc func(productID uint) bool

// Reconciler merges the anonymous (device-local) cart into the authenticated
// remote cart exactly once per anonymous-to-authenticated transition.
type Reconciler struct {
	local         *Store
	fetch         FetchFunc
	sync          SyncFunc
	productExists ProductExistsFunc
	inFlight      atomic.Bool
	logger        *logrus.Logger
}

// NewReconciler creates a reconciler for one identity transition
func NewReconciler(local *Store, fetch FetchFunc, sync SyncFunc, productExists ProductExistsFunc, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{
		local:         local,
		fetch:         fetch,
		sync:          sync,
		productExists: productExists,
		logger:        logger,
	}
}

// Reconcile merges the local cart into the remote cart and returns the
// authoritative merged lines.
//
// The local cart is discarded unconditionally once its lines have been handed
// to the sync function, even when the sync fails partway: a retried
// reconciliation must never double-apply local items. The user may see a
// temporarily partial cart until the next remote fetch succeeds.
//
// A single in-flight flag rejects concurrent invocations for the same
// transition.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Line, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, ErrReconcileInFlight
	}
	defer r.inFlight.Store(false)

	local := r.local.Items()

	// Empty local cart: nothing to merge, adopt the remote cart as-is
	if len(local) == 0 {
		remote, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		remote = r.filterDeleted(remote)
		r.local.Replace(remote)
		return remote, nil
	}

	merged, err := r.sync(ctx, local)

	// Discard the local representation before surfacing any error
	r.local.Clear(ctx)

	if err != nil {
		r.logger.WithError(err).Warn("cart sync failed during reconciliation, local cart discarded")
		return nil, err
	}

	merged = r.filterDeleted(merged)
	r.local.Replace(merged)
	return merged, nil
}

// filterDeleted drops lines whose product no longer exists. This is data
// cleanup, not an error.
func (r *Reconciler) filterDeleted(lines []Line) []Line {
	if r.productExists == nil {
		return lines
	}
	kept := lines[:0]
	for _, line := range lines {
		if r.productExists(line.ProductID) {
			kept = append(kept, line)
		} else {
			r.logger.WithField("product_id", line.ProductID).
				Debug("dropping cart line for deleted product")
		}
	}
	return kept
}
