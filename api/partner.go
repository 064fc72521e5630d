package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/internal/utils"
)

// PartnerHotel is the property record a partner manages.
type PartnerHotel struct {
	Hotel
	Published bool `json:"published"`
}

// PartnerHotelUpdate carries the editable hotel fields.
type PartnerHotelUpdate struct {
	Name        string   `json:"name,omitempty"`
	City        string   `json:"city,omitempty"`
	Address     string   `json:"address,omitempty"`
	Description string   `json:"description,omitempty"`
	PricePerDay int64    `json:"pricePerDay,omitempty"`
	AmenityIDs  []string `json:"amenityIds,omitempty"`
}

// Voucher is a partner-issued discount code.
type Voucher struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Discount   int    `json:"discount"` // percent
	ExpiresAt  string `json:"expiresAt"`
	MaxUses    int    `json:"maxUses"`
	UsageCount int    `json:"usageCount"`
}

// VoucherRequest creates a voucher.
type VoucherRequest struct {
	Code      string `json:"code"`
	Discount  int    `json:"discount"`
	ExpiresAt string `json:"expiresAt"`
	MaxUses   int    `json:"maxUses"`
}

// PartnerHotel fetches the signed-in partner's property.
func (c *Client) PartnerHotel(ctx context.Context) (*PartnerHotel, error) {
	hotel, err := call[PartnerHotel](ctx, c, http.MethodGet, "/partner/hotel", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.PartnerHotel]")
	}
	return hotel, nil
}

// UpdatePartnerHotel edits the partner's property.
func (c *Client) UpdatePartnerHotel(ctx context.Context, update PartnerHotelUpdate) (*PartnerHotel, error) {
	hotel, err := call[PartnerHotel](ctx, c, http.MethodPut, "/partner/hotel", nil, update)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UpdatePartnerHotel]")
	}
	return hotel, nil
}

// Vouchers lists the partner's vouchers.
func (c *Client) Vouchers(ctx context.Context) ([]Voucher, error) {
	vouchers, err := call[[]Voucher](ctx, c, http.MethodGet, "/partner/vouchers", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Vouchers]")
	}
	return utils.Value(vouchers), nil
}

// CreateVoucher issues a new voucher.
func (c *Client) CreateVoucher(ctx context.Context, req VoucherRequest) (*Voucher, error) {
	voucher, err := call[Voucher](ctx, c, http.MethodPost, "/partner/vouchers", nil, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CreateVoucher]")
	}
	return voucher, nil
}

// DeleteVoucher removes a voucher.
func (c *Client) DeleteVoucher(ctx context.Context, id string) error {
	if _, err := call[empty](ctx, c, http.MethodDelete, "/partner/vouchers/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrap(err, "[Client.DeleteVoucher]")
	}
	return nil
}
