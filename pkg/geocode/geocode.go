package geocode

import (
	"context"
	"fmt"
)

type Client interface {
	// ReverseGeocode returns the candidate places for c, best match first.
	ReverseGeocode(ctx context.Context, c Coordinate) ([]Place, error)
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}

type Place struct {
	City             string `json:"city,omitempty"`
	Region           string `json:"region,omitempty"`
	Country          string `json:"country,omitempty"`
	CountryCode      string `json:"countryCode,omitempty"`
	Postcode         string `json:"postcode,omitempty"`
	Street           string `json:"street,omitempty"`
	FormattedAddress string `json:"formattedAddress,omitempty"`
}
