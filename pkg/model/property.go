package model

import "time"

type Property struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	Name        string    `json:"name" bson:"name"`
	Location    string    `json:"location" bson:"location"`
	LockVersion int64     `json:"-" bson:"lock_version"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type PropertyRequest struct {
	OwnerID  string `json:"owner_id" validate:"required,mongodb"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Location string `json:"location" validate:"required,min=2,max=200"`
}
