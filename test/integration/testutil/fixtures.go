package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"rentals/pkg/client"
	"rentals/pkg/model"
)

var seq atomic.Int64

// Day returns midnight UTC n days from now, so fixtures never fall in the past.
func Day(n int) *time.Time {
	d := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, n)
	return &d
}

type Fixture struct {
	Owner    *model.User
	Guest    *model.User
	Property *model.Property
}

// NewFixture creates an owner, a guest and one property through the API.
func NewFixture(t *testing.T, c *client.ReservationClient) *Fixture {
	t.Helper()
	ctx := context.Background()
	n := seq.Add(1)

	owner := Expect[model.User](t, http.StatusCreated)(c.CreateUser(ctx, model.UserRequest{
		Name: "Owner", Email: fmt.Sprintf("owner%d@example.com", n), Role: model.RoleOwner,
	}))
	guest := Expect[model.User](t, http.StatusCreated)(c.CreateUser(ctx, model.UserRequest{
		Name: "Guest", Email: fmt.Sprintf("guest%d@example.com", n), Role: model.RoleGuest,
	}))
	property := Expect[model.Property](t, http.StatusCreated)(c.CreateProperty(ctx, model.PropertyRequest{
		OwnerID: owner.ID, Name: fmt.Sprintf("Flat %d", n), Location: "Porto",
	}))

	return &Fixture{Owner: owner, Guest: guest, Property: property}
}

func (f *Fixture) Booking(from, to int) model.BookingRequest {
	return model.BookingRequest{
		GuestID:      f.Guest.ID,
		PropertyID:   f.Property.ID,
		CheckInDate:  Day(from),
		CheckOutDate: Day(to),
	}
}

func (f *Fixture) Block(from, to int) model.BlockRequest {
	return model.BlockRequest{
		PropertyID: f.Property.ID,
		StartDate:  Day(from),
		EndDate:    Day(to),
	}
}

// Expect asserts the status of a response and decodes its data envelope.
func Expect[T any](t *testing.T, status int) func(*client.Response, error) *T {
	return func(resp *client.Response, err error) *T {
		t.Helper()
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != status {
			t.Fatalf("status = %d, want %d: %s", resp.StatusCode, status, resp.ToString())
		}
		out, err := client.DecodeData[T](resp)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
}

// ExpectError asserts the status and error code of a response.
func ExpectError(t *testing.T, resp *client.Response, err error, status int, code string) *client.ErrorBody {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, status, resp.ToString())
	}
	body, err := client.DecodeError(resp)
	if err != nil {
		t.Fatal(err)
	}
	if body.Code != code {
		t.Fatalf("code = %s, want %s (%s)", body.Code, code, body.Message)
	}
	return body
}
