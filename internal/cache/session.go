package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/userhub/backend/internal/model"
)

// SessionCache keeps the gate-relevant part of a session close to the API so
// the per-request liveness check does not hit Postgres.
type SessionCache interface {
	// Get returns the cached session and whether it was present.
	Get(ctx context.Context, id uuid.UUID) (*model.Session, bool, error)
	// Set stores the session until its expiry. It never clears a revoked
	// flag, so a snapshot read before a revoke cannot resurrect the session.
	Set(ctx context.Context, session *model.Session) error
	// MarkRevoked flags the session as revoked. A missing key becomes a
	// tombstone that lives for ttl, which must cover any Set that may follow.
	MarkRevoked(ctx context.Context, id uuid.UUID, ttl time.Duration) error
	Close() error
}

type redisSessionCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSessionCache connects using a URL such as redis://:pass@host:6379/0
// and pings once so a bad address fails at startup.
func NewRedisSessionCache(ctx context.Context, redisURL, prefix string) (SessionCache, error) {
	if prefix == "" {
		prefix = "userhub:session:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisSessionCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisSessionCache) key(id uuid.UUID) string { return c.prefix + id.String() }

// Stored as a hash with fields uid, role, exp (unix), rev (0/1). A tombstone
// written by MarkRevoked carries only rev.
func (c *redisSessionCache) Get(ctx context.Context, id uuid.UUID) (*model.Session, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(m) == 0 {
		return nil, false, nil
	}

	session := &model.Session{ID: id}
	if m["rev"] == "1" {
		revokedAt := time.Now()
		session.RevokedAt = &revokedAt
		if _, ok := m["uid"]; !ok {
			return session, true, nil
		}
	}

	if session.UserID, err = uuid.Parse(m["uid"]); err != nil {
		return nil, false, err
	}
	if session.Role, err = model.ParseRole(m["role"]); err != nil {
		return nil, false, err
	}
	expUnix, err := strconv.ParseInt(m["exp"], 10, 64)
	if err != nil {
		return nil, false, err
	}
	session.ExpiresAt = time.Unix(expUnix, 0)
	return session, true, nil
}

// setSession refuses to touch a key already flagged revoked.
var setSession = redis.NewScript(`
if redis.call("HGET", KEYS[1], "rev") == "1" then
	return 0
end
redis.call("HSET", KEYS[1], "uid", ARGV[1], "role", ARGV[2], "exp", ARGV[3], "rev", ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

func (c *redisSessionCache) Set(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	rev := "0"
	if session.RevokedAt != nil {
		rev = "1"
	}

	return setSession.Run(ctx, c.rdb, []string{c.key(session.ID)},
		session.UserID.String(),
		session.Role.String(),
		strconv.FormatInt(session.ExpiresAt.Unix(), 10),
		rev,
		ttl.Milliseconds(),
	).Err()
}

// markRevoked keeps the TTL of a live key and gives a tombstone its own.
var markRevoked = redis.NewScript(`
redis.call("HSET", KEYS[1], "rev", "1")
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 1
`)

func (c *redisSessionCache) MarkRevoked(ctx context.Context, id uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return markRevoked.Run(ctx, c.rdb, []string{c.key(id)}, ttl.Milliseconds()).Err()
}

func (c *redisSessionCache) Close() error {
	return c.rdb.Close()
}
