package geocode

import (
	"context"

	"github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

// NewOpenstreetmapClient returns a Nominatim backed client. An empty baseURL
// uses the public Nominatim instance.
func NewOpenstreetmapClient(baseURL string) *oc {
	if baseURL == "" {
		return &oc{geocoder: openstreetmap.Geocoder()}
	}

	return &oc{geocoder: openstreetmap.GeocoderWithURL(baseURL)}
}

type oc struct {
	geocoder geo.Geocoder
}

var _ Client = (*oc)(nil)

type reverseResult struct {
	address *geo.Address
	err     error
}

func (c *oc) ReverseGeocode(ctx context.Context, coord Coordinate) ([]Place, error) {
	// geo-golang takes no context, so the lookup is raced against it.
	done := make(chan reverseResult, 1)
	go func() {
		address, err := c.geocoder.ReverseGeocode(coord.Latitude, coord.Longitude)
		done <- reverseResult{address: address, err: err}
	}()

	var res reverseResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		return nil, res.err
	}

	if res.address == nil {
		return nil, nil
	}

	return []Place{mapAddress(res.address)}, nil
}

func mapAddress(a *geo.Address) Place {
	return Place{
		City:             a.City,
		Region:           a.State,
		Country:          a.Country,
		CountryCode:      a.CountryCode,
		Postcode:         a.Postcode,
		Street:           a.Street,
		FormattedAddress: a.FormattedAddress,
	}
}
