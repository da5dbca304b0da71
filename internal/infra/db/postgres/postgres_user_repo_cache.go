package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/metrics"
	red "voice-analytics/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// cachedUser mirrors model.User including the password hash, which the
// public JSON form omits; a cache hit must be safe to Save back.
type cachedUser struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	IsOrgOwner     bool      `json:"is_org_owner"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewUserRepoCacheDecorator caches FindByID lookups, which the auth
// middleware performs on every authenticated request.
func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	l := logger.With().Str("component", "user_cache").Logger()
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func userIDKey(id string) string { return "user:id:" + id }

func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	_ = d.cache.Del(ctx, userIDKey(u.ID))
	return d.inner.Save(ctx, tx, u)
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	// reads inside a transaction must see the transaction's own writes
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}

	key := userIDKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var cu cachedUser
		if json.Unmarshal([]byte(val), &cu) == nil {
			metrics.IncCacheRequest("user", "hit")
			u := model.User(cu)
			return &u, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Msg("user cache read failed")
	}

	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cachedUser(*user)); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return user, nil
}

func (d *userRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return d.inner.FindByEmail(ctx, tx, email)
}

func (d *userRepoCacheDecorator) ListByOrganization(ctx context.Context, tx repository.Tx, orgID string) ([]*model.User, error) {
	return d.inner.ListByOrganization(ctx, tx, orgID)
}
