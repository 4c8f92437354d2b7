package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	now := time.Now()

	sess := &Session{CallSID: "CA1"}
	sess.Append(RoleAssistant, "hello", now)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "CA1")
	require.NoError(t, err)
	got.Append(RoleCaller, "not saved", now)

	again, err := store.Get(ctx, "CA1")
	require.NoError(t, err)
	assert.Len(t, again.Turns, 1)
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &Session{CallSID: "old", UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, &Session{CallSID: "fresh", UpdatedAt: now.Add(-time.Minute)}))

	assert.Equal(t, 1, store.EvictIdle(now))
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, 10*time.Minute)
	ctx := context.Background()

	sess := &Session{CallSID: "CA1", RequestID: "req-1", Context: CallContext{Title: "Dentist"}}
	sess.Append(RoleAssistant, "hello", time.Now().UTC())
	require.NoError(t, store.Save(ctx, sess))

	assert.Equal(t, 10*time.Minute, mr.TTL("call_session:CA1"))

	got, err := store.Get(ctx, "CA1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "Dentist", got.Context.Title)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "hello", got.Turns[0].Text)

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, "CA1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{CallSID: "CA1"}))
	require.NoError(t, store.Delete(ctx, "CA1"))

	_, err := store.Get(ctx, "CA1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
