package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galaxyinn/backend/internal/store"
)

func TestSetManyRoundTrip(t *testing.T) {
	addr := os.Getenv("GALAXY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set GALAXY_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("galaxy-it-%d:", time.Now().UnixNano())
	s := New(addr, os.Getenv("GALAXY_TEST_REDIS_PASSWORD"), 0, prefix)
	t.Cleanup(func() {
		_ = s.client.Del(ctx, prefix+"a", prefix+"b").Err()
		_ = s.Close()
	})
	require.NoError(t, s.Ping(ctx))

	var missing map[string]int
	found, err := s.Get(ctx, "a", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetMany(ctx, []store.Entry{
		{Key: "a", Value: map[string]int{"stock": 8}},
		{Key: "b", Value: []string{"Completed"}},
	}))

	var a map[string]int
	found, err = s.Get(ctx, "a", &a)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 8, a["stock"])

	var b []string
	_, err = s.Get(ctx, "b", &b)
	require.NoError(t, err)
	assert.Equal(t, []string{"Completed"}, b)
}
