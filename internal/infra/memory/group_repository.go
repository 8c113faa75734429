package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"dollyeo/internal/app"
	"dollyeo/internal/domain"
)

// GroupRepository caches group reads with TTL to avoid repeated hits on the
// backing store; writes pass through and invalidate the cached entry.
type GroupRepository struct {
	backing app.GroupStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedGroup
}

type cachedGroup struct {
	group     domain.QuestionGroup
	expiresAt time.Time
}

func NewGroupRepository(backing app.GroupStore, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedGroup),
	}
}

func (r *GroupRepository) Get(ctx context.Context, ownerID, groupID string) (domain.QuestionGroup, error) {
	key := ownerID + "/" + groupID
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.group, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.group, nil
		}
		r.mu.RUnlock()

		group, err := r.backing.Get(ctx, ownerID, groupID)
		if err != nil {
			return domain.QuestionGroup{}, err
		}

		r.mu.Lock()
		r.cache[key] = cachedGroup{
			group:     group,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return group, nil
	})
	if err != nil {
		return domain.QuestionGroup{}, err
	}
	return result.(domain.QuestionGroup), nil
}

func (r *GroupRepository) List(ctx context.Context, ownerID string) ([]domain.QuestionGroup, error) {
	return r.backing.List(ctx, ownerID)
}

func (r *GroupRepository) Save(ctx context.Context, ownerID string, group domain.QuestionGroup) error {
	if err := r.backing.Save(ctx, ownerID, group); err != nil {
		return err
	}
	r.invalidate(ownerID, group.ID)
	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, ownerID, groupID string) error {
	if err := r.backing.Delete(ctx, ownerID, groupID); err != nil {
		return err
	}
	r.invalidate(ownerID, groupID)
	return nil
}

func (r *GroupRepository) invalidate(ownerID, groupID string) {
	r.mu.Lock()
	delete(r.cache, ownerID+"/"+groupID)
	r.mu.Unlock()
}

func (r *GroupRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
