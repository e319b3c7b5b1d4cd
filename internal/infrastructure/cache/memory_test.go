package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives expiry without sleeping
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(time.Hour)
	c.now = clock.Now
	t.Cleanup(func() { c.Close() })
	return c, clock
}

var _ domain.CacheRepository = (*MemoryCache)(nil)

func TestMemoryCache_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{
			name:  "string",
			value: "papel a4",
			want:  "papel a4",
		},
		{
			name:  "number comes back as float64",
			value: 42,
			want:  float64(42),
		},
		{
			name: "match results come back as generic JSON",
			value: []domain.MatchResult{{
				ProductID:     "p-1",
				ProductName:   "Papel A4",
				Index:         33.33,
				PositiveCount: 2,
				NegativeCount: 1,
			}},
			want: []interface{}{map[string]interface{}{
				"productId":       "p-1",
				"productName":     "Papel A4",
				"index":           33.33,
				"positiveCount":   float64(2),
				"negativeCount":   float64(1),
				"matchedKeywords": nil,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(t)
			ctx := context.Background()

			require.NoError(t, c.Set(ctx, "k", tt.value, time.Minute))

			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	results := []domain.MatchResult{{ProductName: "Papel A4", Index: 100}}
	require.NoError(t, c.Set(ctx, "k", results, time.Minute))

	results[0].Index = 0

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	first := got.([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(100), first["index"])
}

func TestMemoryCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "analysis:unknown")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	clock.Advance(59 * time.Second)
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entry should live until its ttl")

	clock.Advance(2 * time.Second)
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should be gone after its ttl")

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_SetRefreshesTTL(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "old", time.Minute))
	clock.Advance(50 * time.Second)
	require.NoError(t, c.Set(ctx, "k", "new", time.Minute))
	clock.Advance(50 * time.Second)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestMemoryCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "never-set"))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_SweepDropsOnlyExpired(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "long", "v", time.Hour))
	assert.Equal(t, 2, c.Len())

	clock.Advance(time.Minute)
	assert.Equal(t, 2, c.Len(), "expired entries stay until swept")

	c.sweep()
	assert.Equal(t, 1, c.Len())

	ok, _ := c.Exists(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryCache_Flush(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("analysis:%d", i), i, time.Minute))
	}
	require.Equal(t, 5, c.Len())

	c.Flush()

	assert.Equal(t, 0, c.Len())
	_, err := c.Get(ctx, "analysis:0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_SetRejectsUnencodable(t *testing.T) {
	c, _ := newTestCache(t)

	err := c.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			assert.NoError(t, c.Set(ctx, key, n, time.Minute))
			_, _ = c.Get(ctx, key)
			_, _ = c.Exists(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, c.Len())
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
