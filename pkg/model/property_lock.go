package model

import "time"

// PropertyLock is a lease serializing reservation decisions for one property.
// A lease past ExpiresAt may be taken over by the next acquirer.
type PropertyLock struct {
	ID         string    `bson:"_id" json:"id"`
	PropertyID string    `bson:"property_id" json:"property_id"`
	Owner      string    `bson:"owner" json:"owner"`
	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

func PropertyLockID(propertyID string) string {
	return "property_lock_" + propertyID
}
