package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionKeyPrefix = "session:"
	fieldLoggedIn    = "isLoggedIn"
	fieldCurrentUser = "currentUser"
	defaultTTL       = 30 * 24 * time.Hour
)

// RedisStore keeps each session as a hash with isLoggedIn and currentUser
// fields, mirroring the browser's local storage keys.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		redis:  redisClient,
		ttl:    ttl,
		tracer: otel.Tracer("healthconnect.internal.session"),
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Context, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	ctx, span := s.tracer.Start(ctx, "session.redis.load")
	defer span.End()

	fields, err := s.redis.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	sc := &Context{ID: id}
	if len(fields) == 0 {
		return sc, nil
	}

	loggedIn, _ := strconv.ParseBool(fields[fieldLoggedIn])
	if raw := fields[fieldCurrentUser]; raw != "" {
		var user Profile
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("session: decode current user: %w", err)
		}
		sc.User = &user
	}
	sc.LoggedIn = loggedIn && sc.User != nil
	return sc, nil
}

func (s *RedisStore) Save(ctx context.Context, sc *Context) error {
	if sc == nil || sc.ID == "" {
		return ErrMissingID
	}
	ctx, span := s.tracer.Start(ctx, "session.redis.save")
	defer span.End()

	user := ""
	if sc.User != nil {
		data, err := json.Marshal(sc.User)
		if err != nil {
			return fmt.Errorf("session: encode current user: %w", err)
		}
		user = string(data)
	}

	key := sessionKey(sc.ID)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fieldLoggedIn, strconv.FormatBool(sc.LoggedIn))
	if user != "" {
		pipe.HSet(ctx, key, fieldCurrentUser, user)
	}
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: save %s: %w", sc.ID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	ctx, span := s.tracer.Start(ctx, "session.redis.clear")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: clear %s: %w", id, err)
	}
	return nil
}
