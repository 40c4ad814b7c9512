package authstate

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/consensus-api/internal/redisx"
)

func testSingleUse(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "state-1", "user-42"))

	userID, ok, err := s.Take(ctx, "state-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-42", userID)

	// Replay must fail.
	_, ok, err = s.Take(ctx, "state-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown token must fail.
	_, ok, err = s.Take(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySingleUse(t *testing.T) {
	testSingleUse(t, NewMemory())
}

func TestRedisSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	testSingleUse(t, NewRedis(redisx.New(mr.Addr(), "", 0)))
}
