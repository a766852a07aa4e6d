package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestKV(t *testing.T) (*miniredis.Miniredis, *RedisKVStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKVStore(client)
}

func TestRedisKVStore_SetAndGet(t *testing.T) {
	_, kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Minute))
	val, err := kv.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)
}

func TestRedisKVStore_MissIsSentinel(t *testing.T) {
	_, kv := newTestKV(t)

	_, err := kv.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestPublisher_SnapshotKey(t *testing.T) {
	p := NewPublisher(nil, "vital-watch:patient:", ":snapshot", time.Minute, zap.NewNop())
	assert.Equal(t, "vital-watch:patient:P001:snapshot", p.SnapshotKey("P001"))
}

func TestPublisher_PublishSnapshot(t *testing.T) {
	mr, kv := newTestKV(t)
	p := NewPublisher(kv, "vital-watch:patient:", ":snapshot", 30*time.Second, zap.NewNop())

	state := map[string]interface{}{
		"patient_id": "P001",
		"phase":      "ready",
	}
	require.NoError(t, p.PublishSnapshot(context.Background(), "P001", state))

	raw, err := mr.Get("vital-watch:patient:P001:snapshot")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "P001", decoded["patient_id"])
	assert.Equal(t, "ready", decoded["phase"])

	// 快照带短 TTL，看板读到的数据不会无限过期
	ttl := mr.TTL("vital-watch:patient:P001:snapshot")
	assert.Equal(t, 30*time.Second, ttl)
}

func TestPublisher_OverwritesPreviousSnapshot(t *testing.T) {
	mr, kv := newTestKV(t)
	p := NewPublisher(kv, "vital-watch:patient:", ":snapshot", time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PublishSnapshot(ctx, "P001", map[string]string{"phase": "loading"}))
	require.NoError(t, p.PublishSnapshot(ctx, "P001", map[string]string{"phase": "ready"}))

	raw, err := mr.Get("vital-watch:patient:P001:snapshot")
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "ready", decoded["phase"])
}

func TestPublisher_UnmarshalableStateFails(t *testing.T) {
	_, kv := newTestKV(t)
	p := NewPublisher(kv, "vital-watch:patient:", ":snapshot", time.Minute, zap.NewNop())

	err := p.PublishSnapshot(context.Background(), "P001", make(chan int))
	require.Error(t, err)
}
