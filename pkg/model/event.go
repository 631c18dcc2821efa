package model

import "time"

type OccupancyEventType string

const (
	EventBookingCreated   OccupancyEventType = "booking.created"
	EventBookingUpdated   OccupancyEventType = "booking.updated"
	EventBookingCancelled OccupancyEventType = "booking.cancelled"
	EventBookingRebooked  OccupancyEventType = "booking.rebooked"
	EventBookingDeleted   OccupancyEventType = "booking.deleted"
	EventBlockCreated     OccupancyEventType = "block.created"
	EventBlockUpdated     OccupancyEventType = "block.updated"
	EventBlockDeleted     OccupancyEventType = "block.deleted"
)

type RecordKind string

const (
	KindBooking RecordKind = "booking"
	KindBlock   RecordKind = "block"
)

// OccupancyEvent is emitted after a committed change to a property's occupancy.
type OccupancyEvent struct {
	Type       OccupancyEventType `json:"type"`
	Kind       RecordKind         `json:"record_kind"`
	RecordID   string             `json:"record_id"`
	PropertyID string             `json:"property_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	Status     BookingStatus      `json:"status,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func BookingEvent(t OccupancyEventType, b *Booking, at time.Time) OccupancyEvent {
	return OccupancyEvent{
		Type:       t,
		Kind:       KindBooking,
		RecordID:   b.ID,
		PropertyID: b.PropertyID,
		Start:      b.CheckInDate,
		End:        b.CheckOutDate,
		Status:     b.Status,
		OccurredAt: at,
	}
}

func BlockEvent(t OccupancyEventType, b *Block, at time.Time) OccupancyEvent {
	return OccupancyEvent{
		Type:       t,
		Kind:       KindBlock,
		RecordID:   b.ID,
		PropertyID: b.PropertyID,
		Start:      b.StartDate,
		End:        b.EndDate,
		OccurredAt: at,
	}
}
