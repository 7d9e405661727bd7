package model

import "time"

// BookingStatus enumerates booking states. Only StatusConfirmed is produced today.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is a ledger entry reserving one slot in a class.
type Booking struct {
	ID          int64         `gorm:"primaryKey"`
	ClassID     int64         `gorm:"not null;index"`
	ClientName  string        `gorm:"size:100;not null"`
	ClientEmail string        `gorm:"size:255;not null;index"`
	BookingTime time.Time     `gorm:"not null;index"`
	Status      BookingStatus `gorm:"size:20;not null;default:'confirmed';index"`

	// Associations
	Class *FitnessClass `gorm:"foreignKey:ClassID;constraint:OnDelete:RESTRICT"`
}

// BookingDetails is a booking joined with its class at read time.
type BookingDetails struct {
	Booking Booking
	Class   FitnessClass
}
