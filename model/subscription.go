package model

import "time"

/*

Subscription is a "many-to-many" relation recording that a user wants email
notification for new articles in a category.

UserID: user id
CategoryID: category id
CreatedAt: time when relation is created

The composite primary key backs the invariant of at most one active
subscription per (user, category). Subscribe is an upsert with DoNothing on
conflict, unsubscribe an idempotent delete, so concurrent requests from the
same user cannot create duplicates.

*/

type Subscription struct {
	UserID     string `gorm:"primaryKey"`
	CategoryID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}
