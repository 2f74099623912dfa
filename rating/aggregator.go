package rating

import (
	"context"
	"fmt"

	"github.com/Luismorlan/newsportal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Aggregator recomputes an author's derived rating from the current rating
// sums of their posts and related comments. The rating field is never patched
// incrementally: arbitrary like/dislike churn on the source rows is absorbed
// by simply recomputing the whole sum.
type Aggregator struct {
	DB *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{DB: db}
}

// RecomputeAuthorRating recomputes and persists the author's rating:
//
//   3 * sum(rating of the author's posts)
//     + sum(rating of comments the author wrote)
//     + sum(rating of comments written on the author's posts)
//
// Returns the new rating. A missing author is an error, there is no other
// failure mode beyond the storage itself.
func (a *Aggregator) RecomputeAuthorRating(ctx context.Context, authorID string) (int, error) {
	db := a.DB.WithContext(ctx)

	var author model.Author
	res := db.Where("id = ?", authorID).First(&author)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, fmt.Sprintf("fail to load author %s", authorID))
	}

	var postsRating int
	if err := db.Model(&model.Post{}).
		Where("author_id = ?", authorID).
		Select("COALESCE(SUM(rating), 0)").
		Scan(&postsRating).Error; err != nil {
		return 0, errors.Wrap(err, "fail to sum posts rating")
	}

	var ownCommentsRating int
	if err := db.Model(&model.Comment{}).
		Where("user_id = ?", author.UserID).
		Select("COALESCE(SUM(rating), 0)").
		Scan(&ownCommentsRating).Error; err != nil {
		return 0, errors.Wrap(err, "fail to sum author comments rating")
	}

	var postsCommentsRating int
	if err := db.Model(&model.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.author_id = ?", authorID).
		Select("COALESCE(SUM(comments.rating), 0)").
		Scan(&postsCommentsRating).Error; err != nil {
		return 0, errors.Wrap(err, "fail to sum comments rating on author posts")
	}

	rating := 3*postsRating + ownCommentsRating + postsCommentsRating
	if err := db.Model(&model.Author{}).
		Where("id = ?", authorID).
		Update("rating", rating).Error; err != nil {
		return 0, errors.Wrap(err, "fail to persist author rating")
	}

	return rating, nil
}
