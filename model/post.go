package model

import (
	"time"
)

type PostType string

const (
	PostTypeNews    PostType = "NEWS"
	PostTypeArticle PostType = "ARTICLE"
)

const previewLength = 124

/*

Post is a piece of content published on the portal, either a quick NEWS item
or a full ARTICLE.

Id: primary key
CreatedAt: time when entity is created
AuthorID:
Author: the publishing author, "belongs-to" relation
PostType: NEWS or ARTICLE. Only ARTICLE posts ever trigger subscriber
		notification.
Title: post's title in plain text
Content: post's content in plain text
Rating: like/dislike counter, mutated with atomic increments
NotificationSent: set to true exactly once, after a notification run has
		attempted dispatch for the post's whole audience. Guards against
		notifying the same audience twice. Monotonic false -> true.
Categories: categories the post is filed under, "many-to-many" relation
		through PostCategory

*/

type Post struct {
	Id               string `gorm:"primaryKey"`
	CreatedAt        time.Time
	AuthorID         string
	Author           Author `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PostType         PostType
	Title            string
	Content          string
	Rating           int
	NotificationSent bool
	Categories       []*Category `json:"categories" gorm:"many2many:post_categories;"`
}

// Preview returns the leading part of the content for notification bodies.
func (p *Post) Preview() string {
	if len(p.Content) > previewLength {
		return p.Content[:previewLength] + "..."
	}
	return p.Content
}

// IsArticle returns true iff this post participates in the notification
// pipeline.
func (p *Post) IsArticle() bool {
	return p.PostType == PostTypeArticle
}
