package communication

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTranscript(t *testing.T) (*RedisTranscript, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTranscript(client, time.Hour), mr
}

func TestRedisTranscript_AppendAndList(t *testing.T) {
	store, mr := newRedisTranscript(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "bk-1", Message{Text: "one", Sender: SenderUser}))
	require.NoError(t, store.Append(ctx, "bk-1", Message{Text: "two", Sender: SenderDoctor}))

	msgs, err := store.List(ctx, "bk-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Text)
	assert.NotEmpty(t, msgs[0].ID)
	assert.False(t, msgs[0].Timestamp.IsZero())

	last, err := store.List(ctx, "bk-1", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "two", last[0].Text)

	assert.Equal(t, time.Hour, mr.TTL(chatTranscriptKey("bk-1")))
}

func TestRedisTranscript_Capped(t *testing.T) {
	store, _ := newRedisTranscript(t)
	store.maxMessages = 3
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Append(ctx, "bk-1", Message{Text: text}))
	}
	msgs, err := store.List(ctx, "bk-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Text)
}

func TestRedisTranscript_RequiresBookingID(t *testing.T) {
	store, _ := newRedisTranscript(t)
	assert.Error(t, store.Append(context.Background(), "", Message{Text: "x"}))
	_, err := store.List(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestRedisTranscript_NilIsNoop(t *testing.T) {
	var store *RedisTranscript
	assert.Nil(t, NewRedisTranscript(nil, 0))
	assert.NoError(t, store.Append(context.Background(), "bk", Message{}))
	msgs, err := store.List(context.Background(), "bk", 0)
	assert.NoError(t, err)
	assert.Nil(t, msgs)
}
