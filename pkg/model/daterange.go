package model

import "time"

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: start, End: end}
}

// Overlaps reports whether r and other intersect. Ranges that only touch
// (r.End == other.Start) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
