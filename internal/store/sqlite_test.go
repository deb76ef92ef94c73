package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mdb/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestRecordAndListAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	first := &models.Attempt{
		ProjectName: "shop",
		Method:      models.PublishMethodFtp,
		Number:      1,
		Outcome:     models.AttemptConflict,
		Message:     "project name taken",
		CreatedAt:   base,
	}
	require.NoError(t, s.RecordAttempt(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.Attempt{
		ProjectName: "new-name",
		Method:      models.PublishMethodFtp,
		Number:      2,
		Outcome:     models.AttemptSucceeded,
		Message:     "ok",
		URL:         "https://x",
		CreatedAt:   base.Add(time.Second),
	}
	require.NoError(t, s.RecordAttempt(ctx, second))
	require.NoError(t, s.RecordAttempt(ctx, &models.Attempt{
		ProjectName: "blog",
		Method:      models.PublishMethodPipeline,
		Number:      1,
		Outcome:     models.AttemptFailed,
		CreatedAt:   base.Add(2 * time.Second),
	}))

	all, err := s.ListAttempts(ctx, AttemptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "blog", all[0].ProjectName, "newest first")
	assert.Equal(t, models.PublishMethodPipeline, all[0].Method)

	shop, err := s.ListAttempts(ctx, AttemptFilter{ProjectName: "shop"})
	require.NoError(t, err)
	require.Len(t, shop, 1)
	assert.Equal(t, models.AttemptConflict, shop[0].Outcome)
	assert.Equal(t, "project name taken", shop[0].Message)
	assert.True(t, base.Equal(shop[0].CreatedAt))

	limited, err := s.ListAttempts(ctx, AttemptFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListAttempts_Empty(t *testing.T) {
	s := newTestStore(t)
	attempts, err := s.ListAttempts(context.Background(), AttemptFilter{})
	require.NoError(t, err)
	assert.Nil(t, attempts)
}
