package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) *rdb.IntCmd {
	if f.err != nil {
		return rdb.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return rdb.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, d time.Duration) *rdb.BoolCmd {
	f.expires[key] = d
	return rdb.NewBoolResult(true, nil)
}

func (f *fakeCounter) TTL(_ context.Context, key string) *rdb.DurationCmd {
	return rdb.NewDurationResult(f.expires[key], nil)
}

func fixed(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestRedisLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCounter()
	l := NewRedisLimiter(fc, "", 2, time.Minute)
	l.now = fixed(time.Date(2024, 5, 6, 10, 0, 30, 0, time.UTC))

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 1, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, r.Allowed)
	assert.EqualValues(t, 0, r.Remaining)
	assert.Equal(t, time.Minute, r.RetryAfter)

	// otra clave, otro contador
	r, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, r.Allowed)

	assert.Len(t, fc.expires, 2)
	for k := range fc.counts {
		assert.Contains(t, k, "rl:")
	}

	// ventana nueva
	l.now = fixed(time.Date(2024, 5, 6, 10, 1, 0, 0, time.UTC))
	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
}

func TestRedisLimiter_Error(t *testing.T) {
	fc := newFakeCounter()
	fc.err = errors.New("down")
	_, err := NewRedisLimiter(fc, "p:", 1, time.Minute).Allow(context.Background(), "k")
	require.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)
	l.now = fixed(time.Date(2024, 5, 6, 10, 0, 45, 0, time.UTC))

	for i := 0; i < 3; i++ {
		r, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, r.Allowed, "hit %d", i+1)
	}
	r, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.EqualValues(t, 4, r.CurrentHits)
	assert.Equal(t, 15*time.Second, r.RetryAfter)

	l.now = fixed(time.Date(2024, 5, 6, 10, 1, 5, 0, time.UTC))
	r, _ = l.Allow(ctx, "ip")
	assert.True(t, r.Allowed)
}
