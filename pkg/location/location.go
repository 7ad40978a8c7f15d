package location

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manzanit0/storefront/pkg/geocode"
	"github.com/manzanit0/storefront/pkg/metrics"
	"github.com/manzanit0/storefront/pkg/whttp"
)

const (
	MsgPermissionDenied = "Permission to location was not granted"
	MsgGenericFailure   = "Something went wrong"
)

var ErrNoPlace = errors.New("no place found for coordinate")

type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

type Permissions interface {
	RequestPermission(ctx context.Context) (PermissionStatus, error)
}

type Positioner interface {
	CurrentPosition(ctx context.Context) (geocode.Coordinate, error)
}

// State is the outcome of one resolution. Place and Error are never both
// set.
type State struct {
	Coordinate *geocode.Coordinate `json:"coordinate,omitempty"`
	Place      *geocode.Place      `json:"place,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type Resolver struct {
	permissions Permissions
	positioner  Positioner
	geocoder    geocode.Client
	policy      whttp.Policy
	metrics     *metrics.Metrics
}

type Option func(*Resolver)

func WithPolicy(p whttp.Policy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(p Permissions, pos Positioner, g geocode.Client, opts ...Option) *Resolver {
	r := &Resolver{permissions: p, positioner: pos, geocoder: g}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve makes a single attempt at turning the device position into a
// place. Every failure is terminal; callers wanting a fresh location call
// Resolve again.
func (r *Resolver) Resolve(ctx context.Context) State {
	// The permission prompt may wait on a human, so it is not bound by the
	// call policy.
	status, err := r.permissions.RequestPermission(ctx)
	if err != nil {
		return r.fail(ctx, State{}, err)
	}

	if status != PermissionGranted {
		slog.InfoContext(ctx, "location permission not granted", "status", string(status))
		r.metrics.ObserveResolution("denied")
		return State{Error: MsgPermissionDenied}
	}

	coord, err := whttp.Call(ctx, r.policy, r.positioner.CurrentPosition)
	if err != nil {
		return r.fail(ctx, State{}, err)
	}

	state := State{Coordinate: &coord}
	slog.InfoContext(ctx, "device position acquired", "latitude", coord.Latitude, "longitude", coord.Longitude)

	places, err := whttp.Call(ctx, r.policy, func(ctx context.Context) ([]geocode.Place, error) {
		return r.geocoder.ReverseGeocode(ctx, coord)
	})
	if err != nil {
		return r.fail(ctx, state, err)
	}

	if len(places) == 0 {
		return r.fail(ctx, state, ErrNoPlace)
	}

	place := places[0]
	state.Place = &place
	slog.InfoContext(ctx, "location resolved", "city", place.City, "formatted_address", place.FormattedAddress)
	r.metrics.ObserveResolution("resolved")

	return state
}

func (r *Resolver) fail(ctx context.Context, s State, err error) State {
	s.Place = nil
	s.Error = err.Error()
	if s.Error == "" {
		s.Error = MsgGenericFailure
	}

	slog.ErrorContext(ctx, "resolve location", "error", s.Error)
	r.metrics.ObserveResolution("failed")

	return s
}
