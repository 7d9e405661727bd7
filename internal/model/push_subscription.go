package model

import "time"

// PushSubscription holds a browser push subscription for a client email.
type PushSubscription struct {
	Endpoint    string    `gorm:"primaryKey"`
	P256DH      string    `gorm:"column:p256dh;not null"`
	Auth        string    `gorm:"not null"`
	ClientEmail string    `gorm:"size:255;not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
}
