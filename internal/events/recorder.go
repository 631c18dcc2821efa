package events

import (
	"context"
	"sync"

	"rentals/pkg/model"
)

// Recorder keeps published events in memory. Used by tests across packages.
type Recorder struct {
	mu     sync.Mutex
	events []model.OccupancyEvent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event model.OccupancyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []model.OccupancyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.OccupancyEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []model.OccupancyEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.OccupancyEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
