package session

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, prefix), mr
}

func TestRedisStorePairLifecycle(t *testing.T) {
	s, _ := newRedisStore(t, "")

	assert.Empty(t, s.Access())
	assert.Empty(t, s.Refresh())

	require.NoError(t, s.SetPair("a1", "r1"))
	assert.Equal(t, "a1", s.Access())
	assert.Equal(t, "r1", s.Refresh())

	require.NoError(t, s.SetAccess("a2"))
	assert.Equal(t, "a2", s.Access())
	assert.Equal(t, "r1", s.Refresh())

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Access())
	assert.Empty(t, s.Refresh())
}

func TestRedisStorePrefixNamespacesKeys(t *testing.T) {
	s, mr := newRedisStore(t, "clinica-norte")

	require.NoError(t, s.SetPair("a1", "r1"))

	got, err := mr.Get("clinica-norte:" + KeyAccess)
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
	got, err = mr.Get("clinica-norte:" + KeyRefresh)
	require.NoError(t, err)
	assert.Equal(t, "r1", got)

	// Unprefixed keys stay untouched.
	assert.False(t, mr.Exists(KeyAccess))
}

func TestRedisStoreGetFailureReadsAsAbsent(t *testing.T) {
	s, mr := newRedisStore(t, "")
	require.NoError(t, s.SetPair("a1", "r1"))

	mr.Close()
	assert.Empty(t, s.Access())
	assert.Empty(t, s.Refresh())
}
