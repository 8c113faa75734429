package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"dollyeo/internal/app"
	"dollyeo/internal/domain"
)

// GroupRepository caches group reads in Redis (one JSON value per group
// under dollyeo:group:{ownerID}:{groupID}) and falls back to the backing
// store on cache miss. Writes pass through and drop the cached entry.
type GroupRepository struct {
	client  *redis.Client
	backing app.GroupStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewGroupRepository(client *redis.Client, backing app.GroupStore, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *GroupRepository) Get(ctx context.Context, ownerID, groupID string) (domain.QuestionGroup, error) {
	key := r.cacheKey(ownerID, groupID)

	if group, ok := r.cached(ctx, key); ok {
		return group, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if group, ok := r.cached(ctx, key); ok {
			return group, nil
		}

		group, err := r.backing.Get(ctx, ownerID, groupID)
		if err != nil {
			return domain.QuestionGroup{}, err
		}

		if raw, err := json.Marshal(group); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
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
	if err := r.client.Del(ctx, r.cacheKey(ownerID, group.ID)).Err(); err != nil {
		return fmt.Errorf("invalidate group cache: %w", err)
	}
	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, ownerID, groupID string) error {
	if err := r.backing.Delete(ctx, ownerID, groupID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.cacheKey(ownerID, groupID)).Err(); err != nil {
		return fmt.Errorf("invalidate group cache: %w", err)
	}
	return nil
}

func (r *GroupRepository) cached(ctx context.Context, key string) (domain.QuestionGroup, bool) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return domain.QuestionGroup{}, false
	}
	var group domain.QuestionGroup
	if err := json.Unmarshal([]byte(raw), &group); err != nil {
		return domain.QuestionGroup{}, false
	}
	return group, true
}

func (r *GroupRepository) cacheKey(ownerID, groupID string) string {
	return groupKeyPrefix + ownerID + ":" + groupID
}

func (r *GroupRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
