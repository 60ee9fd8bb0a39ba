package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/models"
)

// newTestRepository returns a repository over a private in-memory sqlite database.
func newTestRepository(t *testing.T) (QuestionRepository, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewGormQuestionRepository(db, 5*time.Second)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, db
}

func strPtr(s string) *string { return &s }

func TestGormQuestionRepository_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	t.Run("created question has empty answers and a usable id", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		id, err := repo.Create(ctx, "T", "C")
		require.NoError(t, err)

		q, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, id, q.ID)
		assert.Equal(t, "T", q.Title)
		assert.Equal(t, "C", q.Content)
		assert.NotNil(t, q.Answers)
		assert.Empty(t, q.Answers)
		assert.True(t, q.CreatedAt.After(before))
		assert.Equal(t, time.UTC, q.CreatedAt.Location())
	})

	t.Run("missing question is absent, not an error", func(t *testing.T) {
		q, err := repo.GetByID(ctx, models.NewID())
		assert.NoError(t, err)
		assert.Nil(t, q)
	})
}

func TestGormQuestionRepository_ListPage(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	var ids []models.ID
	for i := 0; i < 5; i++ {
		id, err := repo.Create(ctx, fmt.Sprintf("title %d", i), "content")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Run("first page newest first with total", func(t *testing.T) {
		res, err := repo.ListPage(ctx, ListOptions{Page: 0, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, ids[4], res.Items[0].ID)
		assert.Equal(t, ids[3], res.Items[1].ID)
	})

	t.Run("last page holds the remainder", func(t *testing.T) {
		res, err := repo.ListPage(ctx, ListOptions{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, ids[0], res.Items[0].ID)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		res, err := repo.ListPage(ctx, ListOptions{Page: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.EqualValues(t, 5, res.Total)
	})

	t.Run("ascending by title", func(t *testing.T) {
		res, err := repo.ListPage(ctx, ListOptions{Page: 0, Limit: 10, SortField: SortByTitle, SortOrder: Ascending})
		require.NoError(t, err)
		require.Len(t, res.Items, 5)
		assert.Equal(t, "title 0", res.Items[0].Title)
		assert.Equal(t, "title 4", res.Items[4].Title)
	})
}

func TestGormQuestionRepository_Update(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, "T", "C")
	require.NoError(t, err)

	t.Run("sets only supplied fields", func(t *testing.T) {
		matched, err := repo.Update(ctx, id, strPtr("T2"), nil)
		require.NoError(t, err)
		assert.True(t, matched)

		q, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "T2", q.Title)
		assert.Equal(t, "C", q.Content)
	})

	t.Run("unchanged values still report a match", func(t *testing.T) {
		matched, err := repo.Update(ctx, id, strPtr("T2"), strPtr("C"))
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("unknown id reports no match", func(t *testing.T) {
		matched, err := repo.Update(ctx, models.NewID(), strPtr("x"), nil)
		require.NoError(t, err)
		assert.False(t, matched)
	})
}

func TestGormQuestionRepository_AppendAnswer(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, "T", "C")
	require.NoError(t, err)

	for _, content := range []string{"A1", "A2", "A3"} {
		ok, err := repo.AppendAnswer(ctx, id, content)
		require.NoError(t, err)
		require.True(t, ok)
	}

	q, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, q.Answers, 3)
	assert.Equal(t, "A1", q.Answers[0].Content)
	assert.Equal(t, "A2", q.Answers[1].Content)
	assert.Equal(t, "A3", q.Answers[2].Content)
	assert.False(t, q.Answers[2].CreatedAt.Before(q.Answers[0].CreatedAt))

	t.Run("unknown question appends nothing", func(t *testing.T) {
		ok, err := repo.AppendAnswer(ctx, models.NewID(), "orphan")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormQuestionRepository_Delete(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, "T", "C")
	require.NoError(t, err)
	_, err = repo.AppendAnswer(ctx, id, "A1")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	var answers int64
	require.NoError(t, db.Model(&answerRow{}).Count(&answers).Error)
	assert.Zero(t, answers)

	deleted, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGormQuestionRepository_DeleteAll(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, "T", "C")
		require.NoError(t, err)
	}
	n, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	res, err := repo.ListPage(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestGormQuestionRepository_StoreFailure(t *testing.T) {
	repo, db := newTestRepository(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.Create(context.Background(), "T", "C")
	require.Error(t, err)
	assert.Equal(t, errorz.KindUnavailable, errorz.KindOf(err))
}
