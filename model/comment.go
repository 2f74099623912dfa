package model

import "time"

/*

Comment is a user's comment on a post.

Id: primary key
PostID:
Post: the commented post, "belongs-to" relation, removed together with it
UserID:
User: the commenting user, "belongs-to" relation
Text: comment body in plain text
Rating: like/dislike counter, mutated with atomic increments

*/

type Comment struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	PostID    string
	Post      Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID    string
	User      User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text      string
	Rating    int
}
