package utils

import (
	"testing"
	"time"

	"github.com/Luismorlan/newsportal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// create user with name and email, do sanity checks and returns its Id
func TestCreateUserAndValidate(t *testing.T, name string, email string, db *gorm.DB) (id string) {
	t.Helper()
	user := model.User{
		Id:    uuid.New().String(),
		Name:  name,
		Email: email,
	}
	res := db.Create(&user)
	require.NoError(t, res.Error)
	require.Equal(t, int64(1), res.RowsAffected)
	return user.Id
}

// create an author backed by the given user, returns the author Id
func TestCreateAuthorAndValidate(t *testing.T, userID string, db *gorm.DB) (id string) {
	t.Helper()
	author := model.Author{
		Id:     uuid.New().String(),
		UserID: userID,
	}
	res := db.Create(&author)
	require.NoError(t, res.Error)
	require.Equal(t, int64(1), res.RowsAffected)
	return author.Id
}

// create category with name, returns its Id
func TestCreateCategoryAndValidate(t *testing.T, name string, db *gorm.DB) (id string) {
	t.Helper()
	category := model.Category{
		Id:   uuid.New().String(),
		Name: name,
	}
	res := db.Create(&category)
	require.NoError(t, res.Error)
	require.Equal(t, int64(1), res.RowsAffected)
	return category.Id
}

// create a post of the given type filed under the given categories, returns
// its Id. createdAt is explicit so digest window tests can backdate posts.
func TestCreatePostAndValidate(t *testing.T, authorID string, postType model.PostType,
	title string, categoryIDs []string, createdAt time.Time, db *gorm.DB) (id string) {
	t.Helper()
	post := model.Post{
		Id:        uuid.New().String(),
		CreatedAt: createdAt,
		AuthorID:  authorID,
		PostType:  postType,
		Title:     title,
		Content:   "content of " + title,
	}
	res := db.Create(&post)
	require.NoError(t, res.Error)
	require.Equal(t, int64(1), res.RowsAffected)

	if len(categoryIDs) > 0 {
		var categories []*model.Category
		require.NoError(t, db.Where("id IN ?", categoryIDs).Find(&categories).Error)
		require.Equal(t, len(categoryIDs), len(categories))
		require.NoError(t, db.Model(&post).Association("Categories").Append(categories))
	}
	return post.Id
}

// create a comment on a post with an explicit rating, returns its Id
func TestCreateCommentAndValidate(t *testing.T, postID string, userID string, rating int, db *gorm.DB) (id string) {
	t.Helper()
	comment := model.Comment{
		Id:     uuid.New().String(),
		PostID: postID,
		UserID: userID,
		Text:   "test comment",
		Rating: rating,
	}
	res := db.Create(&comment)
	require.NoError(t, res.Error)
	require.Equal(t, int64(1), res.RowsAffected)
	return comment.Id
}
