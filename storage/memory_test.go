package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	_, ok, err := m.Get(ctx, KeyLists)
	require.NoError(t, err)
	assert.False(t, ok, "fresh backend should be empty")

	require.NoError(t, m.Set(ctx, KeyLists, `{"a":[]}`))
	require.NoError(t, m.Set(ctx, KeyAccessToken, "tok"))

	v, ok, err := m.Get(ctx, KeyLists)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":[]}`, v)

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyLists, KeyAccessToken}, keys)

	require.NoError(t, m.Remove(ctx, KeyLists))
	require.NoError(t, m.Remove(ctx, KeyLists), "removing an absent key is not an error")
	_, ok, _ = m.Get(ctx, KeyLists)
	assert.False(t, ok)
}

func TestMemoryBackend_EmptyKey(t *testing.T) {
	err := NewMemoryBackend().Set(context.Background(), "", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var storErr *StorageError
	require.ErrorAs(t, err, &storErr)
	assert.Equal(t, "write", storErr.Op)
}
