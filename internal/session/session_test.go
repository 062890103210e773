package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t, time.Hour)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

var asha = Profile{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Location: "Hyderabad"}

func TestStoreLifecycle(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			fresh, err := store.Load(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "abc", fresh.ID)
			assert.False(t, fresh.Authenticated())

			fresh.Login(asha)
			require.NoError(t, store.Save(ctx, fresh))

			loaded, err := store.Load(ctx, "abc")
			require.NoError(t, err)
			assert.True(t, loaded.Authenticated())
			user, err := loaded.CurrentUser()
			require.NoError(t, err)
			assert.Equal(t, asha, user)

			loaded.Logout()
			require.NoError(t, store.Save(ctx, loaded))
			again, err := store.Load(ctx, "abc")
			require.NoError(t, err)
			assert.False(t, again.LoggedIn)
			assert.Nil(t, again.User)

			again.Login(asha)
			require.NoError(t, store.Save(ctx, again))
			require.NoError(t, store.Clear(ctx, "abc"))
			cleared, err := store.Load(ctx, "abc")
			require.NoError(t, err)
			assert.False(t, cleared.Authenticated())
		})
	}
}

func TestStoreRequiresID(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Load(ctx, "")
			assert.True(t, errors.Is(err, ErrMissingID))
			assert.True(t, errors.Is(store.Save(ctx, &Context{}), ErrMissingID))
			assert.True(t, errors.Is(store.Clear(ctx, ""), ErrMissingID))
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sc := &Context{ID: "s1"}
	sc.Login(asha)
	require.NoError(t, store.Save(ctx, sc))

	sc.User.Name = "mutated"
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", loaded.User.Name)
}

func TestRedisStoreLayoutAndTTL(t *testing.T) {
	store, mr := newRedisStore(t, 2*time.Hour)
	ctx := context.Background()

	sc := &Context{ID: "s2"}
	sc.Login(asha)
	require.NoError(t, store.Save(ctx, sc))

	assert.Equal(t, "true", mr.HGet("session:s2", "isLoggedIn"))
	assert.JSONEq(t, `{"name":"Asha","email":"asha@example.com","phone":"9876543210","location":"Hyderabad"}`, mr.HGet("session:s2", "currentUser"))
	assert.Equal(t, 2*time.Hour, mr.TTL("session:s2"))

	mr.FastForward(3 * time.Hour)
	expired, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, expired.Authenticated())
}

func TestRedisStoreFlagWithoutUserIsLoggedOut(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	mr.HSet("session:s3", "isLoggedIn", "true")

	sc, err := store.Load(context.Background(), "s3")
	require.NoError(t, err)
	assert.False(t, sc.LoggedIn)
}

func TestRedisStoreCorruptUser(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	mr.HSet("session:s4", "isLoggedIn", "true", "currentUser", "{not json")

	_, err := store.Load(context.Background(), "s4")
	assert.Error(t, err)
}

func TestContextHelpers(t *testing.T) {
	sc := NewContext()
	assert.NotEmpty(t, sc.ID)

	_, err := sc.CurrentUser()
	assert.True(t, errors.Is(err, ErrNotLoggedIn))

	ctx := WithContext(context.Background(), sc)
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, sc, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("session-1")
	require.NoError(t, err)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)

	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = issuer.Parse("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)
	base := time.Now()
	issuer.now = func() time.Time { return base }

	token, err := issuer.Issue("session-2")
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}
