package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type fakeCacheRepo struct {
	values   map[string][]byte
	getErr   error
	patterns []string
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.values == nil {
		f.values = map[string][]byte{}
	}
	f.values[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			delete(f.values, key)
		}
	}
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := &fakeCacheRepo{}
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)

	var out string
	hit, err := cache.Get(context.Background(), "dash:summary", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(context.Background(), "dash:summary", "cached", 0))
	hit, err = cache.Get(context.Background(), "dash:summary", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "cached", out)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string][]byte{"k": []byte(`"v"`)}}
	cache := NewCacheService(repo, nil, 0, nil, false)

	var out string
	hit, err := cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	cache.InvalidateAggregates(context.Background())
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceBackendError(t *testing.T) {
	repo := &fakeCacheRepo{getErr: errors.New("connection refused")}
	cache := NewCacheService(repo, nil, 0, nil, true)

	var out string
	hit, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateAggregates(t *testing.T) {
	repo := &fakeCacheRepo{}
	cache := NewCacheService(repo, nil, 0, nil, true)

	cache.InvalidateAggregates(context.Background())
	assert.Equal(t, []string{"dash:*", "report:*"}, repo.patterns)
}
