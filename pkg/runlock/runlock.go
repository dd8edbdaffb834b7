package runlock

import (
	"context"
	"errors"
	"time"

	"github.com/datakite/olist-warehouse/pkg/redis"
	"github.com/google/uuid"

	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
)

// Lock guards the output store against concurrent writers. Materialization is
// only safe for a single writer per store, so a run takes the lock for its
// lifetime using SETNX with a TTL safety net.
type Lock struct {
	store redis.LockStore
	ttl   time.Duration
	runID uuid.UUID
	key   string
}

// New builds a run lock scoped to the named output store.
func New(store redis.LockStore, scope string, ttl time.Duration, runID uuid.UUID) (*Lock, error) {
	if store == nil {
		return nil, errors.New("lock store is required")
	}
	if scope == "" {
		return nil, errors.New("lock scope is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	if runID == uuid.Nil {
		return nil, errors.New("run id is required")
	}
	return &Lock{
		store: store,
		ttl:   ttl,
		runID: runID,
		key:   store.LockKey(scope),
	}, nil
}

// Acquire takes the lock or fails with BUILD_LOCK_HELD naming the holder.
func (l *Lock) Acquire(ctx context.Context) error {
	set, err := l.store.SetNX(ctx, l.key, l.runID.String(), l.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire build lock")
	}
	if !set {
		holder, getErr := l.store.Get(ctx, l.key)
		if getErr != nil {
			holder = "unknown"
		}
		return pkgerrors.New(pkgerrors.CodeLockHeld, "build lock held by run "+holder)
	}
	return nil
}

// Release drops the lock if this run still owns it.
func (l *Lock) Release(ctx context.Context) error {
	holder, err := l.store.Get(ctx, l.key)
	if err != nil {
		return nil // expired or already released
	}
	if holder != l.runID.String() {
		return nil
	}
	return l.store.Del(ctx, l.key)
}
