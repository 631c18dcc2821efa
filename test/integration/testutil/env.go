package testutil

import (
	"os"
	"testing"
	"time"

	"rentals/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv points the suite at a running reservations service and its
// database. Tests skip unless TEST_SERVER_URL is set.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    os.Getenv("TEST_SERVER_URL"),
	}
}

func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.ReservationClient) {
	t.Helper()
	if e.ServerURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration test")
	}

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanCollections(t)

	c := client.NewReservationClient(e.ServerURL)
	if err := c.HTTP().WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("service not healthy: %v", err)
	}

	return mongo, c
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanCollections(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
