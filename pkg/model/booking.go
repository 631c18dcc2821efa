package model

import (
	"time"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty"`
	PropertyID   string        `json:"property_id" bson:"property_id"`
	GuestID      string        `json:"guest_id" bson:"guest_id"`
	CheckInDate  time.Time     `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate time.Time     `json:"check_out_date" bson:"check_out_date"`
	Status       BookingStatus `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Range() DateRange {
	return NewDateRange(b.CheckInDate, b.CheckOutDate)
}

func (b *Booking) IsActive() bool {
	return b.Status == BookingActive
}

// BookingRequest is the body accepted for booking create and update.
// Dates are pointers so the range validator can report them as missing.
type BookingRequest struct {
	GuestID      string     `json:"guest_id" validate:"required,mongodb"`
	PropertyID   string     `json:"property_id" validate:"required,mongodb"`
	CheckInDate  *time.Time `json:"check_in_date"`
	CheckOutDate *time.Time `json:"check_out_date"`
}
