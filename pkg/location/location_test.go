package location_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/manzanit0/storefront/pkg/geocode"
	"github.com/manzanit0/storefront/pkg/location"
	"github.com/manzanit0/storefront/pkg/metrics"
	"github.com/manzanit0/storefront/pkg/terminal"
	"github.com/manzanit0/storefront/pkg/whttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePermissions struct {
	status location.PermissionStatus
	err    error
}

func (f fakePermissions) RequestPermission(context.Context) (location.PermissionStatus, error) {
	return f.status, f.err
}

type fakePositioner struct {
	coord geocode.Coordinate
	err   error
	calls int
}

func (f *fakePositioner) CurrentPosition(context.Context) (geocode.Coordinate, error) {
	f.calls++
	return f.coord, f.err
}

type fakeGeocoder struct {
	places []geocode.Place
	err    error
	block  bool
}

func (f fakeGeocoder) ReverseGeocode(ctx context.Context, _ geocode.Coordinate) ([]geocode.Place, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.places, f.err
}

var paris = geocode.Coordinate{Latitude: 48.8566, Longitude: 2.3522}

func TestResolve(t *testing.T) {
	testCases := []struct {
		desc           string
		permissions    fakePermissions
		positioner     *fakePositioner
		geocoder       fakeGeocoder
		wantError      string
		wantCoordinate bool
		wantAddress    string
	}{
		{
			desc:        "when permission is denied, the fixed message is set and nothing else",
			permissions: fakePermissions{status: location.PermissionDenied},
			positioner:  &fakePositioner{coord: paris},
			geocoder:    fakeGeocoder{places: []geocode.Place{{City: "Paris"}}},
			wantError:   location.MsgPermissionDenied,
		},
		{
			desc:        "when the permission request fails, its message is surfaced",
			permissions: fakePermissions{err: errors.New("permission race")},
			positioner:  &fakePositioner{coord: paris},
			wantError:   "permission race",
		},
		{
			desc:           "when everything succeeds, the first candidate is the place",
			permissions:    fakePermissions{status: location.PermissionGranted},
			positioner:     &fakePositioner{coord: paris},
			geocoder:       fakeGeocoder{places: []geocode.Place{{City: "Paris", FormattedAddress: "Paris, France"}, {City: "Lyon"}}},
			wantCoordinate: true,
			wantAddress:    "Paris, France",
		},
		{
			desc:        "when the position cannot be read, the provider message is surfaced",
			permissions: fakePermissions{status: location.PermissionGranted},
			positioner:  &fakePositioner{err: errors.New("location provider unavailable")},
			wantError:   "location provider unavailable",
		},
		{
			desc:           "when geocoding fails, the coordinate is kept and the error set",
			permissions:    fakePermissions{status: location.PermissionGranted},
			positioner:     &fakePositioner{coord: paris},
			geocoder:       fakeGeocoder{err: errors.New("network down")},
			wantCoordinate: true,
			wantError:      "network down",
		},
		{
			desc:           "when geocoding fails without a message, the generic message is used",
			permissions:    fakePermissions{status: location.PermissionGranted},
			positioner:     &fakePositioner{coord: paris},
			geocoder:       fakeGeocoder{err: errors.New("")},
			wantCoordinate: true,
			wantError:      location.MsgGenericFailure,
		},
		{
			desc:           "when geocoding finds no candidates, it is a failure",
			permissions:    fakePermissions{status: location.PermissionGranted},
			positioner:     &fakePositioner{coord: paris},
			geocoder:       fakeGeocoder{},
			wantCoordinate: true,
			wantError:      location.ErrNoPlace.Error(),
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := location.NewResolver(tC.permissions, tC.positioner, tC.geocoder)

			got := r.Resolve(context.Background())

			assert.Equal(t, tC.wantError, got.Error)
			if tC.wantCoordinate {
				require.NotNil(t, got.Coordinate)
				assert.Equal(t, paris, *got.Coordinate)
			} else {
				assert.Nil(t, got.Coordinate)
			}

			if tC.wantAddress != "" {
				require.NotNil(t, got.Place)
				assert.Equal(t, tC.wantAddress, got.Place.FormattedAddress)
			} else {
				assert.Nil(t, got.Place)
			}
		})
	}
}

func TestResolve_DeniedDoesNotReadPosition(t *testing.T) {
	pos := &fakePositioner{coord: paris}
	r := location.NewResolver(location.StaticPermissions(location.PermissionDenied), pos, fakeGeocoder{})

	r.Resolve(context.Background())

	assert.Zero(t, pos.calls)
}

func TestResolve_PolicyTimeout(t *testing.T) {
	m := metrics.NewForTesting()
	r := location.NewResolver(
		location.StaticPermissions(location.PermissionGranted),
		location.StaticPositioner(paris),
		fakeGeocoder{block: true},
		location.WithPolicy(whttp.Policy{Timeout: 20 * time.Millisecond}),
		location.WithMetrics(m),
	)

	got := r.Resolve(context.Background())

	assert.Equal(t, context.DeadlineExceeded.Error(), got.Error)
	assert.Nil(t, got.Place)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LocationResolutions.WithLabelValues("failed")))
}

func TestPromptPermissions(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
		want  location.PermissionStatus
	}{
		{desc: "when the user answers y, access is granted", input: "y\n", want: location.PermissionGranted},
		{desc: "when the user answers YES, access is granted", input: " YES \n", want: location.PermissionGranted},
		{desc: "when the user just hits enter, access is denied", input: "\n", want: location.PermissionDenied},
		{desc: "when input ends, access is denied", input: "", want: location.PermissionDenied},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := location.NewPromptPermissions(terminal.NewLines(strings.NewReader(tC.input)), out)

			got, err := p.RequestPermission(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
			assert.Contains(t, out.String(), "[y/N]")
		})
	}
}

func TestPromptPermissions_CancelLeavesInputToTheNextReader(t *testing.T) {
	lines := terminal.NewLines(strings.NewReader("shoe\n"))
	p := location.NewPromptPermissions(lines, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RequestPermission(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	query, err := lines.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shoe", query)
}

func TestIPAPIPositioner(t *testing.T) {
	testCases := []struct {
		desc    string
		body    string
		want    geocode.Coordinate
		wantErr string
	}{
		{
			desc: "when the lookup succeeds, the coordinate is returned",
			body: `{"status":"success","lat":27.2152,"lon":77.4909}`,
			want: geocode.Coordinate{Latitude: 27.2152, Longitude: 77.4909},
		},
		{
			desc:    "when the lookup fails, the api message is part of the error",
			body:    `{"status":"fail","message":"private range"}`,
			wantErr: "private range",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "status,message,lat,lon", r.URL.Query().Get("fields"))
				_, _ = w.Write([]byte(tC.body))
			}))
			defer srv.Close()

			got, err := location.NewIPAPIPositioner(srv.Client(), srv.URL).CurrentPosition(context.Background())
			if tC.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tC.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
		})
	}
}
