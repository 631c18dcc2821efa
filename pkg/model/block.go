package model

import "time"

// Block is an owner-initiated hold on a property. It has no status: while the
// record exists the range is occupied.
type Block struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	PropertyID string    `json:"property_id" bson:"property_id"`
	StartDate  time.Time `json:"start_date" bson:"start_date"`
	EndDate    time.Time `json:"end_date" bson:"end_date"`
	Reason     string    `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Block) Range() DateRange {
	return NewDateRange(b.StartDate, b.EndDate)
}

type BlockRequest struct {
	PropertyID string     `json:"property_id" validate:"required,mongodb"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Reason     string     `json:"reason,omitempty" validate:"omitempty,max=200"`
}
