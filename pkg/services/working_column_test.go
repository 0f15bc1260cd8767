package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingColumn_Lifecycle(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addAuthor(t, 1, "Italo Calvino")
	svc := lib.service(AuthorMergeOptions{})
	ctx := context.Background()

	require.NoError(t, svc.EnsureWorkingColumn(ctx))
	assert.True(t, lib.hasColumn(t, "normalized_name"))

	// Both ensure steps are safe to repeat.
	require.NoError(t, svc.EnsureWorkingColumn(ctx))
	require.NoError(t, svc.EnsureWorkingIndex(ctx))
	require.NoError(t, svc.EnsureWorkingIndex(ctx))
	assert.Equal(t, int64(1), lib.count(t, lib.dialect.IndexExistsQuery(), "authors", "normalized_name_index"))

	require.NoError(t, svc.DropWorkingColumn(ctx))
	assert.False(t, lib.hasColumn(t, "normalized_name"))
	assert.Zero(t, lib.count(t, lib.dialect.IndexExistsQuery(), "authors", "normalized_name_index"))

	// Dropping again is a no-op.
	require.NoError(t, svc.DropWorkingColumn(ctx))
}

func TestWorkingColumn_DropWithoutIndex(t *testing.T) {
	lib := newTestLibrary(t)
	svc := lib.service(AuthorMergeOptions{})
	ctx := context.Background()

	require.NoError(t, svc.EnsureWorkingColumn(ctx))
	require.NoError(t, svc.DropWorkingColumn(ctx))
	assert.False(t, lib.hasColumn(t, "normalized_name"))
}

func TestWorkingColumn_CustomNames(t *testing.T) {
	lib := newTestLibrary(t)
	lib.schema.KeyColumn = "dedup_key"
	lib.schema.KeyIndex = "dedup_key_idx"
	svc := lib.service(AuthorMergeOptions{})
	ctx := context.Background()

	require.NoError(t, svc.EnsureWorkingColumn(ctx))
	require.NoError(t, svc.EnsureWorkingIndex(ctx))
	assert.True(t, lib.hasColumn(t, "dedup_key"))
	assert.False(t, lib.hasColumn(t, "normalized_name"))

	require.NoError(t, svc.DropWorkingColumn(ctx))
	assert.False(t, lib.hasColumn(t, "dedup_key"))
}
