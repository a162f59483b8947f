package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPollCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPollCache()

	ok, err := c.Contains(ctx, "favorite raid?")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Add(ctx, "favorite raid?"))
	require.NoError(t, c.Add(ctx, "next event day?"))

	ok, err = c.Contains(ctx, "favorite raid?")
	require.NoError(t, err)
	assert.True(t, ok)

	questions, err := c.Questions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"favorite raid?", "next event day?"}, questions)

	require.NoError(t, c.Remove(ctx, "favorite raid?"))
	ok, err = c.Contains(ctx, "favorite raid?")
	require.NoError(t, err)
	assert.False(t, ok)
}
