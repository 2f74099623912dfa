package server

import (
	"github.com/Luismorlan/newsportal/notification"
	"github.com/Luismorlan/newsportal/rating"
	"github.com/Luismorlan/newsportal/subscription"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes wires all portal endpoints on the given router.
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	bus *gochannel.GoChannel,
	registry *subscription.Registry,
	aggregator *rating.Aggregator,
	composer *notification.Composer,
	dispatcher *notification.Dispatcher,
) {
	router.POST("/users", CreateUserHandler(db, composer, dispatcher))

	router.POST("/posts", CreatePostHandler(db, bus))
	router.POST("/posts/:id/like", RatePostHandler(db, aggregator, 1))
	router.POST("/posts/:id/dislike", RatePostHandler(db, aggregator, -1))
	router.POST("/posts/:id/comments", CreateCommentHandler(db))

	router.POST("/comments/:id/like", RateCommentHandler(db, aggregator, 1))
	router.POST("/comments/:id/dislike", RateCommentHandler(db, aggregator, -1))

	router.PUT("/subscriptions", SubscribeHandler(registry))
	router.DELETE("/subscriptions", UnsubscribeHandler(registry))
	router.GET("/categories/:id/subscribers", CategorySubscribersHandler(registry))
}
