package model

import "time"

type Category struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string  `gorm:"uniqueIndex"`
	Posts     []*Post `json:"posts" gorm:"many2many:post_categories;"`
}
