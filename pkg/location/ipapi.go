package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/manzanit0/storefront/pkg/geocode"
)

const DefaultIPAPIURL = "http://ip-api.com/json"

// IPAPIPositioner approximates the device position from its public IP.
type IPAPIPositioner struct {
	h   *http.Client
	url string
}

func NewIPAPIPositioner(h *http.Client, url string) *IPAPIPositioner {
	if url == "" {
		url = DefaultIPAPIURL
	}

	return &IPAPIPositioner{h: h, url: url}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (p *IPAPIPositioner) CurrentPosition(ctx context.Context) (geocode.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?fields=status,message,lat,lon", nil)
	if err != nil {
		return geocode.Coordinate{}, err
	}

	res, err := p.h.Do(req)
	if err != nil {
		return geocode.Coordinate{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return geocode.Coordinate{}, fmt.Errorf("ip-api unexpected response: (%d)", res.StatusCode)
	}

	var d ipAPIResponse
	if err := json.NewDecoder(res.Body).Decode(&d); err != nil {
		return geocode.Coordinate{}, fmt.Errorf("decode ip-api response: %w", err)
	}

	if d.Status != "success" {
		return geocode.Coordinate{}, fmt.Errorf("ip-api lookup failed: %s", d.Message)
	}

	return geocode.Coordinate{Latitude: d.Lat, Longitude: d.Lon}, nil
}
