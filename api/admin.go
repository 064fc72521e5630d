package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/internal/utils"
	"github.com/wanderinn/go-client/session"
)

// Partner is a hotel-owner account as seen by the back office.
type Partner struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	HotelName string `json:"hotelName"`
	Approved  bool   `json:"approved"`
	CreatedAt string `json:"createdAt"`
}

type statusRequest struct {
	Status session.AccountStatus `json:"status"`
}

// Partners lists partner accounts.
func (c *Client) Partners(ctx context.Context) ([]Partner, error) {
	partners, err := call[[]Partner](ctx, c, http.MethodGet, "/admin/partners", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Partners]")
	}
	return utils.Value(partners), nil
}

// ApprovePartner approves a pending partner account.
func (c *Client) ApprovePartner(ctx context.Context, id string) error {
	if _, err := call[empty](ctx, c, http.MethodPost, "/admin/partners/"+url.PathEscape(id)+"/approve", nil, nil); err != nil {
		return errors.Wrap(err, "[Client.ApprovePartner]")
	}
	return nil
}

// Users lists platform accounts.
func (c *Client) Users(ctx context.Context) ([]session.User, error) {
	users, err := call[[]session.User](ctx, c, http.MethodGet, "/admin/users", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Users]")
	}
	return utils.Value(users), nil
}

// SetUserStatus changes an account's lifecycle state (e.g. banning).
func (c *Client) SetUserStatus(ctx context.Context, id string, status session.AccountStatus) error {
	if _, err := call[empty](ctx, c, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/status", nil, statusRequest{Status: status}); err != nil {
		return errors.Wrap(err, "[Client.SetUserStatus]")
	}
	return nil
}
