package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAgent  bool   `json:"is_agent"`
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCacheData_RoundTrip(t *testing.T) {
	_, rdb := setupCache(t)
	ctx := context.Background()

	author := cachedAuthor{ID: "agent-7", Username: "petra", IsAgent: true}
	require.NoError(t, SetCacheData(ctx, rdb, "chat:author:agent-7", &author, 5*time.Minute))

	got, appErr := GetCacheData[cachedAuthor](ctx, rdb, "chat:author:agent-7")
	require.Nil(t, appErr)
	require.NotNil(t, got)
	assert.Equal(t, author, *got)
}

func TestGetCacheData_Miss(t *testing.T) {
	_, rdb := setupCache(t)

	got, appErr := GetCacheData[cachedAuthor](context.Background(), rdb, "chat:author:nobody")

	assert.Nil(t, appErr, "cache miss is not an error")
	assert.Nil(t, got)
}

func TestGetCacheData_CorruptPayload(t *testing.T) {
	mr, rdb := setupCache(t)
	mr.Set("chat:author:bad", "{not json")

	got, appErr := GetCacheData[cachedAuthor](context.Background(), rdb, "chat:author:bad")

	require.NotNil(t, appErr)
	assert.Nil(t, got)
	assert.Equal(t, "json", appErr.Field)
}

func TestSetCacheData_HonorsTTL(t *testing.T) {
	mr, rdb := setupCache(t)
	ctx := context.Background()

	author := cachedAuthor{ID: "cust-1", Username: "klaus"}
	require.NoError(t, SetCacheData(ctx, rdb, "chat:author:cust-1", &author, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, appErr := GetCacheData[cachedAuthor](ctx, rdb, "chat:author:cust-1")
	assert.Nil(t, appErr)
	assert.Nil(t, got, "entry should expire with its TTL")
}

func TestDeleteCacheData(t *testing.T) {
	_, rdb := setupCache(t)
	ctx := context.Background()

	author := cachedAuthor{ID: "cust-2", Username: "maria"}
	require.NoError(t, SetCacheData(ctx, rdb, "chat:author:cust-2", &author, time.Minute))
	require.NoError(t, DeleteCacheData(ctx, rdb, "chat:author:cust-2"))

	got, appErr := GetCacheData[cachedAuthor](ctx, rdb, "chat:author:cust-2")
	assert.Nil(t, appErr)
	assert.Nil(t, got)
}
