package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values map[string]string
	getErr error
	closed bool
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &fakeRedis{values: map[string]string{}}
	b := NewRedisBackend(client, "")

	empty, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	snap := Snapshot{"5": {ClickedLink: true}, "6": {Allowed: true, ClickedLink: true}}
	require.NoError(t, b.Save(ctx, snap))
	assert.Contains(t, client.values, DefaultRedisKey)

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	require.NoError(t, b.Close())
	assert.True(t, client.closed)
}

func TestRedisBackendErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisBackend(&fakeRedis{getErr: errors.New("conn refused")}, "k").Load(ctx)
	assert.Error(t, err)

	_, err = NewRedisBackend(&fakeRedis{values: map[string]string{"k": "not json"}}, "k").Load(ctx)
	assert.Error(t, err)
}
