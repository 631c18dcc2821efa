package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"rentals/pkg/model"
)

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int
}

// ReservationClient talks to the reservations HTTP API.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseUrl string) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *ReservationClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *ReservationClient) CreateUser(ctx context.Context, req model.UserRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/users", req)
}

func (c *ReservationClient) GetUsers(ctx context.Context, limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/users?limit=%d&offset=%d", limit, offset))
}

func (c *ReservationClient) UpdateUser(ctx context.Context, id string, req model.UserRequest) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/users/id/"+url.PathEscape(id), req)
}

func (c *ReservationClient) UpdateProperty(ctx context.Context, id string, req model.PropertyRequest) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/properties/id/"+url.PathEscape(id), req)
}

func (c *ReservationClient) CreateProperty(ctx context.Context, req model.PropertyRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/properties", req)
}

func (c *ReservationClient) CreateBooking(ctx context.Context, req model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req)
}

func (c *ReservationClient) GetBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *ReservationClient) GetBookings(ctx context.Context, limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset))
}

func (c *ReservationClient) UpdateBooking(ctx context.Context, id string, req model.BookingRequest) (*Response, error) {
	return c.httpClient.PUT(ctx, "/api/v1/bookings/id/"+url.PathEscape(id), req)
}

func (c *ReservationClient) CancelBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *ReservationClient) RebookBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/rebook", nil)
}

func (c *ReservationClient) DeleteBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *ReservationClient) CreateBlock(ctx context.Context, req model.BlockRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/blocks", req)
}

func (c *ReservationClient) UpdateBlock(ctx context.Context, id string, req model.BlockRequest) (*Response, error) {
	return c.httpClient.PUT(ctx, "/api/v1/blocks/id/"+url.PathEscape(id), req)
}

func (c *ReservationClient) DeleteBlock(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/blocks/id/"+url.PathEscape(id))
}

// DecodeData unwraps the {"data": ...} envelope of a success response.
func DecodeData[T any](resp *Response) (*T, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode response wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var out T
	if err := json.Unmarshal(wrapper.Data, &out); err != nil {
		return nil, fmt.Errorf("could not decode response data:\n%s\n%w", resp.ToString(), err)
	}

	return &out, nil
}

func DecodePage[T any](resp *Response) ([]T, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int             `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%s\n%w", resp.ToString(), err)
	}

	var items []T
	if err := json.Unmarshal(wrapper.Data, &items); err != nil {
		return nil, nil, fmt.Errorf("could not decode list:\n%s\n%w", resp.ToString(), err)
	}

	return items, &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}, nil
}
