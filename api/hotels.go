package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/internal/utils"
)

// Hotel is a bookable property as returned by the public listing endpoints.
type Hotel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	PricePerDay int64    `json:"pricePerDay"`
	AmenityIDs  []string `json:"amenityIds"`
	ImageURLs   []string `json:"imageUrls"`
}

// Amenity is a filterable hotel feature.
type Amenity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// HotelSearch holds the optional listing filters. Zero values are omitted
// from the query.
type HotelSearch struct {
	City      string
	CheckIn   string // YYYY-MM-DD
	CheckOut  string // YYYY-MM-DD
	Guests    int
	Amenities []string
	Page      int
}

func (s HotelSearch) query() url.Values {
	q := url.Values{}
	if s.City != "" {
		q.Set("city", s.City)
	}
	if s.CheckIn != "" {
		q.Set("checkIn", s.CheckIn)
	}
	if s.CheckOut != "" {
		q.Set("checkOut", s.CheckOut)
	}
	if s.Guests > 0 {
		q.Set("guests", strconv.Itoa(s.Guests))
	}
	for _, a := range s.Amenities {
		q.Add("amenity", a)
	}
	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	return q
}

// SearchHotels lists hotels matching the filters. Works unauthenticated.
func (c *Client) SearchHotels(ctx context.Context, search HotelSearch) ([]Hotel, error) {
	hotels, err := call[[]Hotel](ctx, c, http.MethodGet, "/hotels", search.query(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SearchHotels]")
	}
	return utils.Value(hotels), nil
}

// Hotel fetches one hotel by ID.
func (c *Client) Hotel(ctx context.Context, id string) (*Hotel, error) {
	hotel, err := call[Hotel](ctx, c, http.MethodGet, "/hotels/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Hotel]")
	}
	return hotel, nil
}

// Amenities lists the amenity catalogue.
func (c *Client) Amenities(ctx context.Context) ([]Amenity, error) {
	amenities, err := call[[]Amenity](ctx, c, http.MethodGet, "/amenities", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Amenities]")
	}
	return utils.Value(amenities), nil
}
