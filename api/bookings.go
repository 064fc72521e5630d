package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/internal/utils"
)

// Booking is a reservation belonging to the signed-in user.
type Booking struct {
	ID         string `json:"id"`
	HotelID    string `json:"hotelId"`
	RoomID     string `json:"roomId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Guests     int    `json:"guests"`
	TotalPrice int64  `json:"totalPrice"`
	Status     string `json:"status"`
	VoucherID  string `json:"voucherId,omitempty"`
}

// BookingRequest creates a reservation.
type BookingRequest struct {
	HotelID   string `json:"hotelId"`
	RoomID    string `json:"roomId"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Guests    int    `json:"guests"`
	VoucherID string `json:"voucherId,omitempty"`
}

// Bookings lists the current user's reservations.
func (c *Client) Bookings(ctx context.Context) ([]Booking, error) {
	bookings, err := call[[]Booking](ctx, c, http.MethodGet, "/bookings", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Bookings]")
	}
	return utils.Value(bookings), nil
}

// CreateBooking reserves a room.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	booking, err := call[Booking](ctx, c, http.MethodPost, "/bookings", nil, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CreateBooking]")
	}
	return booking, nil
}

// CancelBooking cancels a reservation.
func (c *Client) CancelBooking(ctx context.Context, id string) error {
	if _, err := call[empty](ctx, c, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/cancel", nil, nil); err != nil {
		return errors.Wrap(err, "[Client.CancelBooking]")
	}
	return nil
}
