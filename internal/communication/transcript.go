package communication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	chatTranscriptKeyPrefix = "chat_transcript:"
	defaultTranscriptTTL    = 7 * 24 * time.Hour
	defaultTranscriptCap    = 250
)

// Transcript persists chat messages per booking.
type Transcript interface {
	Append(ctx context.Context, bookingID string, msg Message) error
	List(ctx context.Context, bookingID string, limit int64) ([]Message, error)
}

// RedisTranscript keeps a capped list per booking. A nil *RedisTranscript is
// a no-op.
type RedisTranscript struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

func NewRedisTranscript(redisClient *redis.Client, ttl time.Duration) *RedisTranscript {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTranscriptTTL
	}
	return &RedisTranscript{
		redis:       redisClient,
		tracer:      otel.Tracer("healthconnect.internal.communication.transcript"),
		ttl:         ttl,
		maxMessages: defaultTranscriptCap,
	}
}

func (s *RedisTranscript) Append(ctx context.Context, bookingID string, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if bookingID == "" {
		return errors.New("communication: transcript bookingID required")
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("communication: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "communication.transcript.append")
	defer span.End()

	key := chatTranscriptKey(bookingID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("communication: append transcript message: %w", err)
	}
	return nil
}

// List returns the last limit messages, or all of them when limit <= 0.
func (s *RedisTranscript) List(ctx context.Context, bookingID string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if bookingID == "" {
		return nil, errors.New("communication: transcript bookingID required")
	}

	ctx, span := s.tracer.Start(ctx, "communication.transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := s.redis.LRange(ctx, chatTranscriptKey(bookingID), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("communication: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func chatTranscriptKey(bookingID string) string {
	return chatTranscriptKeyPrefix + bookingID
}

var _ Transcript = (*RedisTranscript)(nil)
