package model

import "time"

type User struct {
	Id                   string `gorm:"primaryKey"`
	CreatedAt            time.Time
	Name                 string
	Email                string
	SubscribedCategories []*Category `json:"subscribed_categories" gorm:"many2many:subscriptions;"`
}
