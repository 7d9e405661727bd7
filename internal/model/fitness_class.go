package model

import "time"

// FitnessClass is a scheduled class in the catalog.
type FitnessClass struct {
	ID             int64     `gorm:"primaryKey"`
	Name           string    `gorm:"size:100;not null;index"`
	ScheduledAt    time.Time `gorm:"not null;index"` // always UTC
	Instructor     string    `gorm:"size:100;not null"`
	TotalSlots     int       `gorm:"not null"`
	AvailableSlots int       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Associations
	Bookings []Booking `gorm:"foreignKey:ClassID"`
}

// TableName keeps the table name short.
func (FitnessClass) TableName() string {
	return "classes"
}

// HasStarted reports whether the class has reached its cutoff at now.
func (c *FitnessClass) HasStarted(now time.Time) bool {
	return !c.ScheduledAt.After(now)
}
