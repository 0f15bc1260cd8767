package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/author-merge/pkg/models"
)

func finishedPass() *models.MergeStats {
	start := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	return &models.MergeStats{
		KeysComputed:          1200,
		DuplicateGroups:       14,
		AuthorsDeleted:        19,
		DependenciesRewritten: 40,
		DependenciesDropped:   2,
		StartedAt:             start,
		FinishedAt:            start.Add(90 * time.Second),
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := New("sqlite")
	r.Observe(finishedPass())

	assert.Equal(t, 1200.0, testutil.ToFloat64(r.KeysComputed))
	assert.Equal(t, 14.0, testutil.ToFloat64(r.DuplicateGroups))
	assert.Equal(t, 19.0, testutil.ToFloat64(r.AuthorsDeleted))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.DependenciesRewritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.DependenciesDropped))
	assert.Equal(t, float64(finishedPass().FinishedAt.Unix()), testutil.ToFloat64(r.LastSuccess))
	assert.Equal(t, 1, testutil.CollectAndCount(r.PassDuration))
}

func TestRecorder_ObserveNil(t *testing.T) {
	r := New("sqlite")
	r.Observe(nil)
	assert.Zero(t, testutil.ToFloat64(r.KeysComputed))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New("mysql")
	r.Observe(finishedPass())

	path := filepath.Join(t.TempDir(), "author_merge.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `author_merge_authors_deleted_total{store="mysql"} 19`)
	assert.Contains(t, text, `author_merge_duplicate_groups{store="mysql"} 14`)
	assert.Contains(t, text, "author_merge_pass_duration_seconds_count")
}
