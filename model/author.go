package model

import "time"

/*

Author is the publishing identity of a user. A user becomes an Author the
first time they publish, and keeps exactly one Author row afterwards.

Id: primary key
UserID:
User: the backing user account, one-to-one
Rating: derived reputation score. Never edited directly, always recomputed
		from the rating sums of the author's posts and related comments, see
		rating.Aggregator.

*/

type Author struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    string `gorm:"uniqueIndex"`
	User      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Rating    int
}
