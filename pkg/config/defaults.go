package config

import "time"

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

const (
	DefaultStoreDriver = StoreMongo

	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "rentals"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMinReservationHours = 24

	DefaultLockLeaseTTL      = 30 * time.Second
	DefaultLockWaitTimeout   = 5 * time.Second
	DefaultLockRetryInterval = 25 * time.Millisecond

	DefaultRedisAddr    = ""
	DefaultRedisDB      = 0
	DefaultUserCacheTTL = 10 * time.Minute

	DefaultKafkaEnabled   = false
	DefaultOccupancyTopic = "occupancy-events"

	DefaultPaginationLimit = 100
)
