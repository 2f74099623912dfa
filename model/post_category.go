package model

/*

PostCategory is the "many-to-many" join between a post and a category.
Deleting either side cascades into this row so a post never keeps stale
category associations.

*/

type PostCategory struct {
	PostID     string `gorm:"primaryKey"`
	CategoryID string `gorm:"primaryKey"`
}
