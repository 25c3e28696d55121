// Package session tracks which buyers currently have a live tracking
// session and which identity each session acts as. Sessions are
// established by the external auth layer; this registry only observes
// them. Under support impersonation an operator acts as a buyer, so the
// effective buyer id can differ from the authenticated principal. All
// reconciliation and analytics run against the effective id, carried
// explicitly as a BuyerContext value rather than read from any global.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "session:buyer:"

// ErrNoSession is returned when a principal has no live session. The
// polling worker treats it as identity lost and stops.
var ErrNoSession = errors.New("no live session for principal")

// BuyerContext is the acting identity threaded through every core call.
type BuyerContext struct {
	SessionID        string `json:"session_id"`
	PrincipalID      string `json:"principal_id"`
	EffectiveBuyerID string `json:"effective_buyer_id"`
}

// Registry is the Redis-backed session registry. Keys expire with the
// session TTL; an expired key is how the tracker learns a session ended
// without an explicit logout.
type Registry struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Register records a live session for principalID acting as
// effectiveBuyerID. Registering again refreshes the TTL and replaces
// the effective identity.
func (r *Registry) Register(ctx context.Context, principalID, effectiveBuyerID string) (BuyerContext, error) {
	bc := BuyerContext{
		SessionID:        uuid.NewString(),
		PrincipalID:      principalID,
		EffectiveBuyerID: effectiveBuyerID,
	}

	// Write and TTL go in one transaction so a session key can never
	// outlive its expiry.
	key := keyPrefix + principalID
	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"session_id":         bc.SessionID,
		"principal_id":       bc.PrincipalID,
		"effective_buyer_id": bc.EffectiveBuyerID,
		"started_at":         time.Now().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return BuyerContext{}, fmt.Errorf("register session: %w", err)
	}

	r.logger.Info("session registered",
		zap.String("principal_id", principalID),
		zap.String("effective_buyer_id", effectiveBuyerID),
		zap.String("session_id", bc.SessionID),
	)

	return bc, nil
}

// Resolve returns the acting identity for a principal, or ErrNoSession
// if the session has ended or expired.
func (r *Registry) Resolve(ctx context.Context, principalID string) (BuyerContext, error) {
	fields, err := r.redis.HGetAll(ctx, keyPrefix+principalID).Result()
	if err != nil {
		return BuyerContext{}, fmt.Errorf("resolve session: %w", err)
	}
	if len(fields) == 0 {
		return BuyerContext{}, ErrNoSession
	}

	return BuyerContext{
		SessionID:        fields["session_id"],
		PrincipalID:      fields["principal_id"],
		EffectiveBuyerID: fields["effective_buyer_id"],
	}, nil
}

// Touch refreshes the session TTL; presentation calls it on user
// activity.
func (r *Registry) Touch(ctx context.Context, principalID string) error {
	ok, err := r.redis.Expire(ctx, keyPrefix+principalID, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrNoSession
	}
	return nil
}

// End removes a session immediately (logout, navigation away).
func (r *Registry) End(ctx context.Context, principalID string) error {
	if err := r.redis.Del(ctx, keyPrefix+principalID).Err(); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	r.logger.Info("session ended", zap.String("principal_id", principalID))
	return nil
}

// Active lists every live session. The worker manager polls this to
// decide which buyer trackers to run.
func (r *Registry) Active(ctx context.Context) ([]BuyerContext, error) {
	var (
		sessions []BuyerContext
		cursor   uint64
	)

	for {
		keys, next, err := r.redis.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}

		for _, key := range keys {
			fields, err := r.redis.HGetAll(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("read session %s: %w", key, err)
			}
			if len(fields) == 0 {
				// Expired between SCAN and HGETALL.
				continue
			}
			sessions = append(sessions, BuyerContext{
				SessionID:        fields["session_id"],
				PrincipalID:      fields["principal_id"],
				EffectiveBuyerID: fields["effective_buyer_id"],
			})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}
