package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Luismorlan/newsportal/model"
	"github.com/Luismorlan/newsportal/notification"
	"github.com/Luismorlan/newsportal/rating"
	"github.com/Luismorlan/newsportal/subscription"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const welcomeMailTimeout = 30 * time.Second

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

type createPostRequest struct {
	AuthorID    string   `json:"author_id" binding:"required"`
	PostType    string   `json:"post_type" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Content     string   `json:"content"`
	CategoryIDs []string `json:"category_ids"`
}

type createCommentRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type subscriptionRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	CategoryID string `json:"category_id" binding:"required"`
}

// CreateUserHandler creates a user and, when an email address is present,
// sends the welcome mail off the request path. Welcome mail failure is an
// operational log line, never a request failure.
func CreateUserHandler(db *gorm.DB, composer *notification.Composer, dispatcher *notification.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := model.User{
			Id:    uuid.New().String(),
			Name:  req.Name,
			Email: req.Email,
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create user"})
			return
		}

		if user.Email != "" {
			go sendWelcomeMail(composer, dispatcher, user)
		}

		c.JSON(http.StatusOK, gin.H{"id": user.Id})
	}
}

func sendWelcomeMail(composer *notification.Composer, dispatcher *notification.Dispatcher, user model.User) {
	ctx, cancel := context.WithTimeout(context.Background(), welcomeMailTimeout)
	defer cancel()

	msg, err := composer.ComposeWelcome(&user)
	if err != nil {
		Logger.Log.Errorf("fail to compose welcome mail for %s : %v", user.Id, err)
		return
	}
	if err := dispatcher.DispatchOne(ctx, user.Email, msg); err != nil {
		Logger.Log.Errorf("fail to send welcome mail to %s : %v", user.Email, err)
	}
}

// CreatePostHandler persists a post, attaches its categories and publishes
// the post events the notification engine reacts to. The request returns as
// soon as the rows are written, notification always happens off the request
// path.
func CreatePostHandler(db *gorm.DB, bus *gochannel.GoChannel) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		postType := model.PostType(req.PostType)
		if postType != model.PostTypeNews && postType != model.PostTypeArticle {
			c.JSON(http.StatusBadRequest, gin.H{"error": "post_type must be NEWS or ARTICLE"})
			return
		}

		post := model.Post{
			Id:       uuid.New().String(),
			AuthorID: req.AuthorID,
			PostType: postType,
			Title:    req.Title,
			Content:  req.Content,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
			if len(req.CategoryIDs) == 0 {
				return nil
			}
			var categories []*model.Category
			if err := tx.Where("id IN ?", req.CategoryIDs).Find(&categories).Error; err != nil {
				return err
			}
			return tx.Model(&post).Association("Categories").Append(categories)
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create post"})
			return
		}

		// Two discrete events mirror the two storage writes: the post row and
		// the category join rows. The pipeline worker collapses them into one
		// delayed run.
		publishPostEvent(bus, post.Id, post.PostType)
		if len(req.CategoryIDs) > 0 {
			publishPostEvent(bus, post.Id, post.PostType)
		}

		c.JSON(http.StatusOK, gin.H{"id": post.Id})
	}
}

func publishPostEvent(bus *gochannel.GoChannel, postID string, postType model.PostType) {
	if bus == nil {
		return
	}
	err := notification.PublishPostEvent(bus, notification.PostPublishedEvent{
		PostID:   postID,
		PostType: postType,
	})
	if err != nil {
		Logger.Log.Errorf("fail to publish post event for %s : %v", postID, err)
	}
}

// RatePostHandler bumps a post's rating by delta and recomputes the owning
// author's derived rating.
func RatePostHandler(db *gorm.DB, aggregator *rating.Aggregator, delta int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var post model.Post
		err := db.Where("id = ?", c.Param("id")).First(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to rate post"})
			return
		}

		if err := db.Model(&model.Post{}).Where("id = ?", post.Id).
			Update("rating", gorm.Expr("rating + ?", delta)).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to rate post"})
			return
		}

		if _, err := aggregator.RecomputeAuthorRating(c.Request.Context(), post.AuthorID); err != nil {
			Logger.Log.Errorf("fail to recompute rating for author %s : %v", post.AuthorID, err)
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// CreateCommentHandler adds a comment to a post.
func CreateCommentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		comment := model.Comment{
			Id:     uuid.New().String(),
			PostID: c.Param("id"),
			UserID: req.UserID,
			Text:   req.Text,
		}
		if err := db.Create(&comment).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create comment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": comment.Id})
	}
}

// RateCommentHandler bumps a comment's rating by delta and recomputes the
// rating of the author owning the commented post.
func RateCommentHandler(db *gorm.DB, aggregator *rating.Aggregator, delta int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var comment model.Comment
		err := db.Preload("Post").Where("id = ?", c.Param("id")).First(&comment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to rate comment"})
			return
		}

		if err := db.Model(&model.Comment{}).Where("id = ?", comment.Id).
			Update("rating", gorm.Expr("rating + ?", delta)).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to rate comment"})
			return
		}

		if _, err := aggregator.RecomputeAuthorRating(c.Request.Context(), comment.Post.AuthorID); err != nil {
			Logger.Log.Errorf("fail to recompute rating for author %s : %v", comment.Post.AuthorID, err)
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// SubscribeHandler subscribes a user to a category, idempotently.
func SubscribeHandler(registry *subscription.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := registry.Subscribe(c.Request.Context(), req.UserID, req.CategoryID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to subscribe"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// UnsubscribeHandler removes a subscription, idempotently.
func UnsubscribeHandler(registry *subscription.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := registry.Unsubscribe(c.Request.Context(), req.UserID, req.CategoryID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unsubscribe"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// CategorySubscribersHandler lists the subscriber emails of one category.
// Debugging aid for operators.
func CategorySubscribersHandler(registry *subscription.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := registry.SubscribersOf(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to list subscribers"})
			return
		}
		emails := []string{}
		for _, user := range users {
			emails = append(emails, user.Email)
		}
		c.JSON(http.StatusOK, gin.H{"subscribers": emails})
	}
}
