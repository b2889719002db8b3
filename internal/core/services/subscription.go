package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/canopy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/canopy-cli/internal/logger"
)

// Ensure SubscriptionPropagator implements the interface.
var _ driving.SubscriptionService = (*SubscriptionPropagator)(nil)

// SubscriptionPropagator toggles subscription flags on whole subtrees with
// optimistic local apply and exact rollback when the persistence endpoint
// rejects the change.
//
// Toggles are serialised per connection so a rollback from a slow failing
// toggle can never clobber a newer optimistic state on the same tree.
type SubscriptionPropagator struct {
	treeStore driven.TreeStore
	jobStore  driven.SyncJobStore
	endpoint  driven.SubscriptionEndpoint

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSubscriptionPropagator creates a new propagator.
func NewSubscriptionPropagator(
	treeStore driven.TreeStore,
	jobStore driven.SyncJobStore,
	endpoint driven.SubscriptionEndpoint,
) *SubscriptionPropagator {
	return &SubscriptionPropagator{
		treeStore: treeStore,
		jobStore:  jobStore,
		endpoint:  endpoint,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Toggle flips the subscription flag of nodeID and every descendant.
func (p *SubscriptionPropagator) Toggle(
	ctx context.Context, connectionID, nodeID string,
) (*driving.ToggleResult, error) {
	lock := p.connectionLock(connectionID)
	lock.Lock()
	defer lock.Unlock()

	if err := p.checkWritable(ctx, connectionID); err != nil {
		return nil, err
	}

	node, err := p.treeStore.Get(ctx, connectionID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}

	affected, err := p.collectAffected(ctx, connectionID, node)
	if err != nil {
		return nil, fmt.Errorf("collect descendants: %w", err)
	}

	// The toggled node's previous state determines the flag applied to
	// every affected node; descendants do not keep independent states.
	newState := !node.IsSubscribed

	op := newToggleOp(connectionID, affected, newState)
	if err := op.apply(ctx, p.treeStore); err != nil {
		return nil, fmt.Errorf("apply toggle: %w", err)
	}

	if err := p.endpoint.Apply(ctx, connectionID, op.ids, newState); err != nil {
		logger.Warn("Subscription persistence failed for %s, rolling back %d nodes: %v",
			connectionID, len(op.ids), err)
		if revertErr := op.revert(ctx, p.treeStore); revertErr != nil {
			return nil, fmt.Errorf("revert toggle: %w", errors.Join(revertErr, err))
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSubscriptionRejected, err)
	}

	return &driving.ToggleResult{
		NodeID:       nodeID,
		AffectedIDs:  op.ids,
		IsSubscribed: newState,
	}, nil
}

// checkWritable rejects toggles while a sync is running but has not
// delivered any documents yet.
func (p *SubscriptionPropagator) checkWritable(ctx context.Context, connectionID string) error {
	job, err := p.jobStore.Get(ctx, connectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get sync job: %w", err)
	}
	if !job.Running() {
		return nil
	}

	count, err := p.treeStore.Count(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("count nodes: %w", err)
	}
	if count == 0 {
		return domain.ErrSyncInProgress
	}
	return nil
}

// collectAffected returns the toggled node plus, for containers, every
// transitive descendant in breadth-first order.
func (p *SubscriptionPropagator) collectAffected(
	ctx context.Context, connectionID string, node *domain.DocumentNode,
) ([]domain.DocumentNode, error) {
	affected := []domain.DocumentNode{*node}
	if !node.CanHaveChildren {
		return affected, nil
	}

	queue := []string{node.ID}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]

		children, err := p.treeStore.Children(ctx, connectionID, &parentID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			affected = append(affected, child)
			if child.CanHaveChildren {
				queue = append(queue, child.ID)
			}
		}
	}

	return affected, nil
}

// connectionLock returns the per-connection toggle mutex.
func (p *SubscriptionPropagator) connectionLock(connectionID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[connectionID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[connectionID] = lock
	}
	return lock
}

// toggleOp is one optimistic subscription change as an explicit two-phase
// operation: snapshot of prior flags, uniform apply, exact revert.
type toggleOp struct {
	connectionID string
	ids          []string
	prior        map[string]bool
	newState     bool
}

// newToggleOp snapshots the pre-toggle flags of the affected nodes.
func newToggleOp(connectionID string, affected []domain.DocumentNode, newState bool) *toggleOp {
	op := &toggleOp{
		connectionID: connectionID,
		ids:          make([]string, 0, len(affected)),
		prior:        make(map[string]bool, len(affected)),
		newState:     newState,
	}
	for _, node := range affected {
		op.ids = append(op.ids, node.ID)
		op.prior[node.ID] = node.IsSubscribed
	}
	return op
}

// apply sets the new flag on every affected node.
func (op *toggleOp) apply(ctx context.Context, store driven.TreeStore) error {
	subs := make(map[string]bool, len(op.ids))
	for _, id := range op.ids {
		subs[id] = op.newState
	}
	return store.SetSubscriptions(ctx, op.connectionID, subs)
}

// revert restores the snapshotted flags. The store skips ids that no
// longer exist, so a rollback landing after a resync cannot touch the
// fresh tree.
func (op *toggleOp) revert(ctx context.Context, store driven.TreeStore) error {
	return store.SetSubscriptions(ctx, op.connectionID, op.prior)
}
