package repository

import (
	"context"
	"regexp"
	"testing"

	"huddle/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, repo PostRepository, content string) *models.Post {
	t.Helper()
	p := models.NewPost(models.NewID(), models.PrivacyPublic, content, "")
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()

	p := createPost(t, repo, "hello")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, models.PrivacyPublic, got.Privacy)
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.Comments)

	_, err = repo.GetByID(ctx, models.NewID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_LikesAreASet(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()
	p := createPost(t, repo, "likeable")
	u := models.NewID()

	require.NoError(t, repo.AddLike(ctx, p.ID, u))
	require.NoError(t, repo.AddLike(ctx, p.ID, u))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, u, got.Likes[0].UserID)

	require.NoError(t, repo.RemoveLike(ctx, p.ID, u))
	require.NoError(t, repo.RemoveLike(ctx, p.ID, u))

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)

	assert.ErrorIs(t, repo.AddLike(ctx, models.NewID(), u), ErrNotFound)
}

func TestPostRepository_AppendCommentPreservesOrder(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()
	p := createPost(t, repo, "discuss")
	replied := models.NewID()

	for _, text := range []string{"one", "two", "three"} {
		c := &models.Comment{UserID: models.NewID(), Content: text}
		if text == "two" {
			c.RepliedTo = &replied
		}
		require.NoError(t, repo.AppendComment(ctx, p.ID, c))
	}

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	assert.Equal(t, "one", got.Comments[0].Content)
	assert.Equal(t, "two", got.Comments[1].Content)
	assert.Equal(t, "three", got.Comments[2].Content)
	require.NotNil(t, got.Comments[1].RepliedTo)
	assert.Equal(t, replied, *got.Comments[1].RepliedTo)
	assert.False(t, got.Comments[0].CreatedAt.IsZero())

	err = repo.AppendComment(ctx, models.NewID(), &models.Comment{UserID: models.NewID(), Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_UpdateContentOnlySuppliedFields(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()
	p := createPost(t, repo, "before")

	require.NoError(t, repo.UpdateContent(ctx, p.ID, ContentUpdate{Image: "/uploads/posts/a.webp"}))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Content)
	assert.Equal(t, "/uploads/posts/a.webp", got.Image)

	require.NoError(t, repo.UpdateContent(ctx, p.ID, ContentUpdate{Content: "after"}))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.Equal(t, "/uploads/posts/a.webp", got.Image)

	assert.ErrorIs(t, repo.UpdateContent(ctx, models.NewID(), ContentUpdate{Content: "x"}), ErrNotFound)
}

func TestPostRepository_UpdatePrivacy(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()
	p := createPost(t, repo, "secretive")

	require.NoError(t, repo.UpdatePrivacy(ctx, p.ID, models.PrivacyPrivate))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPrivate, got.Privacy)

	assert.ErrorIs(t, repo.UpdatePrivacy(ctx, models.NewID(), models.PrivacyPublic), ErrNotFound)
}

func TestPostRepository_DeleteRemovesEmbeddedRecords(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	p := createPost(t, repo, "doomed")
	require.NoError(t, repo.AddLike(ctx, p.ID, models.NewID()))
	require.NoError(t, repo.AppendComment(ctx, p.ID, &models.Comment{UserID: models.NewID(), Content: "bye"}))

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var likes, comments int64
	db.Model(&models.Like{}).Where("post_id = ?", p.ID).Count(&likes)
	db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrNotFound)
}

func TestPostRepository_ListAndGetByIDs(t *testing.T) {
	repo := NewPostRepository(setupSQLite(t))
	ctx := context.Background()
	a := createPost(t, repo, "a")
	b := createPost(t, repo, "b")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := repo.GetByIDs(ctx, []string{a.ID, models.NewID()})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, a.ID, some[0].ID)

	none, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	_ = b
}

func TestPostRepository_AddLike_PostgresUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	postID, userID := models.NewID(), models.NewID()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE id = $1`)).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "post_likes" ("post_id","user_id") VALUES ($1,$2) ON CONFLICT DO NOTHING RETURNING "id"`)).
		WithArgs(postID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddLike(context.Background(), postID, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete_PostgresNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	id := models.NewID()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts" WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
