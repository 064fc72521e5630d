package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/internal/utils"
)

// Notification is a message delivered to the signed-in user.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// Favorites lists the hotels the user has saved.
func (c *Client) Favorites(ctx context.Context) ([]Hotel, error) {
	hotels, err := call[[]Hotel](ctx, c, http.MethodGet, "/favorites", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Favorites]")
	}
	return utils.Value(hotels), nil
}

// AddFavorite saves a hotel.
func (c *Client) AddFavorite(ctx context.Context, hotelID string) error {
	if _, err := call[empty](ctx, c, http.MethodPost, "/favorites/"+url.PathEscape(hotelID), nil, nil); err != nil {
		return errors.Wrap(err, "[Client.AddFavorite]")
	}
	return nil
}

// RemoveFavorite removes a saved hotel.
func (c *Client) RemoveFavorite(ctx context.Context, hotelID string) error {
	if _, err := call[empty](ctx, c, http.MethodDelete, "/favorites/"+url.PathEscape(hotelID), nil, nil); err != nil {
		return errors.Wrap(err, "[Client.RemoveFavorite]")
	}
	return nil
}

// Notifications lists the user's notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	notifications, err := call[[]Notification](ctx, c, http.MethodGet, "/notifications", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Notifications]")
	}
	return utils.Value(notifications), nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if _, err := call[empty](ctx, c, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		return errors.Wrap(err, "[Client.MarkNotificationRead]")
	}
	return nil
}
