package repository

import (
	"context"
	"encoding/json"
	"time"

	"folio/internal/cache"
	"folio/internal/models"
	"folio/internal/observability"
)

// SubscriberRepository defines newsletter subscriber operations. The
// collection is write-only from the site's perspective except for the
// aggregate count and the pre-insert existence check.
type SubscriberRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	Create(ctx context.Context, sub *models.Subscriber) error
	Count(ctx context.Context) (int, error)
}

const (
	subscriberByEmailQuery = `*[_type == "subscriber" && email == $email][0]{
  _id, email, name, subscribedAt
}`

	subscriberCountQuery = `count(*[_type == "subscriber"])`
)

type subscriberRepository struct {
	store Store
	cache *cache.Cache
}

// NewSubscriberRepository creates a subscriber repository backed by the
// given store and cache.
func NewSubscriberRepository(store Store, c *cache.Cache) SubscriberRepository {
	return &subscriberRepository{store: store, cache: c}
}

// FindByEmail is deliberately uncached: it backs the duplicate check on
// the write path, where a stale answer would double-subscribe.
func (r *subscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	raw, err := r.store.Fetch(ctx, subscriberByEmailQuery, map[string]any{"email": email})
	if err != nil {
		observability.NewQueryLogger("subscriberByEmail").LogError(ctx, err)
		return nil, models.NewUpstreamError(err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var sub models.Subscriber
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, models.NewUpstreamError(err)
	}
	return &sub, nil
}

func (r *subscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	doc := map[string]any{
		"_type":        "subscriber",
		"email":        sub.Email,
		"subscribedAt": sub.SubscribedAt.UTC().Format(time.RFC3339),
	}
	if sub.Name != "" {
		doc["name"] = sub.Name
	}

	if err := r.store.Create(ctx, doc); err != nil {
		observability.NewQueryLogger("subscriberCreate").LogError(ctx, err)
		return models.NewUpstreamError(err)
	}

	r.cache.Invalidate(ctx, cache.KeySubscriberCount)
	return nil
}

func (r *subscriberRepository) Count(ctx context.Context) (int, error) {
	return memoized(ctx, cache.KeySubscriberCount, func() (int, error) {
		var count int
		err := r.cache.Aside(ctx, "subscriberCount", cache.KeySubscriberCount, &count, cache.SubscriberCountTTL,
			[]string{cache.TagSubscribers}, func() error {
				raw, err := r.store.Fetch(ctx, subscriberCountQuery, nil)
				if err != nil {
					observability.NewQueryLogger("subscriberCount").LogError(ctx, err)
					return models.NewUpstreamError(err)
				}
				if len(raw) == 0 || string(raw) == "null" {
					count = 0
					return nil
				}
				return json.Unmarshal(raw, &count)
			})
		return count, err
	})
}
