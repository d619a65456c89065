package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) CacheKey(parts ...string) string {
	return "ue:cache:" + strings.Join(parts, ":")
}

type payload struct {
	Name string `json:"name"`
}

func TestServiceRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc, err := NewService(store, 30*time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.SetJSON(ctx, payload{Name: "dosa"}, "orders", "user", "u1"))
	assert.Equal(t, 30*time.Second, store.ttls["ue:cache:orders:user:u1"])

	var out payload
	hit, err := svc.GetJSON(ctx, &out, "orders", "user", "u1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "dosa", out.Name)
}

func TestServiceMiss(t *testing.T) {
	svc, err := NewService(newFakeStore(), time.Second)
	require.NoError(t, err)

	var out payload
	hit, err := svc.GetJSON(context.Background(), &out, "orders", "user", "missing")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestServiceCorruptEntryIsMiss(t *testing.T) {
	store := newFakeStore()
	store.data["ue:cache:orders:user:u1"] = "{not json"
	svc, err := NewService(store, time.Second)
	require.NoError(t, err)

	var out payload
	hit, err := svc.GetJSON(context.Background(), &out, "orders", "user", "u1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestServiceInvalidate(t *testing.T) {
	store := newFakeStore()
	svc, err := NewService(store, time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.SetJSON(ctx, payload{Name: "idli"}, "orders", "user", "u1"))
	require.NoError(t, svc.Invalidate(ctx, "orders", "user", "u1"))

	var out payload
	hit, err := svc.GetJSON(ctx, &out, "orders", "user", "u1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, time.Second)
	assert.Error(t, err)

	_, err = NewService(newFakeStore(), 0)
	assert.Error(t, err)
}
