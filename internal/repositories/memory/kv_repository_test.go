package memory

import (
	"context"
	"testing"

	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrKeyNotFound)

	value := []byte(`{"a":1}`)
	require.NoError(t, repo.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, repositories.ErrKeyNotFound)
}
