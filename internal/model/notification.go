package model

import "time"

// Notification is an in-app message shown to a user. One is created per
// user registration; IsRead only ever moves from false to true.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"not null;index"`
	Message   string    `json:"message" gorm:"size:512;not null"`
	IsRead    bool      `json:"isRead" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID"`
}
