package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewStore(context.Background(), Config{Addr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStore_SetGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "tx:0x01")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "tx:0x01", []byte(`{"hash":"0x01"}`), 0))
	payload, ok, err := store.Get(ctx, "tx:0x01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"hash":"0x01"}`, string(payload))

	assert.True(t, mr.Exists(keyPrefix+"tx:0x01"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"tx:0x01"))
}

func TestStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "receipt:0x02", []byte(`{}`), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, ok, err := store.Get(ctx, "receipt:0x02")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewStore(context.Background(), Config{Addr: addr})
	assert.Error(t, err)

	_, err = NewStore(context.Background(), Config{})
	assert.Error(t, err)
}

func TestStore_GetErrorAfterShutdown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "block:0x03:full")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}
