package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHash struct {
	data map[string]map[string]string
	err  error
}

func (f *fakeHash) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	out := map[string]string{}
	for k, v := range f.data[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, f.err)
}

func (f *fakeHash) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	if f.data[key] == nil {
		f.data[key] = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		f.data[key][values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	fake := &fakeHash{data: map[string]map[string]string{}}
	s := New(fake, "")

	require.NoError(t, s.Save(ctx, map[string]string{"coral_domain": "https://c", "coral_api_token": "t"}))
	require.NoError(t, s.Save(ctx, nil))

	v, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://c", v["coral_domain"])
	assert.Contains(t, fake.data, DefaultKey)
}

func TestStore_Errors(t *testing.T) {
	fake := &fakeHash{data: map[string]map[string]string{}, err: errors.New("conn refused")}
	s := New(fake, "custom")

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom")

	require.Error(t, s.Save(context.Background(), map[string]string{"a": "b"}))
}
