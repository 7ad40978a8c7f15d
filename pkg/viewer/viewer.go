// package viewer holds the state behind the product screen: the catalog as
// last fetched, the search query, and the resolved location used for the
// header label.
package viewer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/manzanit0/storefront/pkg/catalog"
	"github.com/manzanit0/storefront/pkg/diagnostics"
	"github.com/manzanit0/storefront/pkg/location"
	"github.com/manzanit0/storefront/pkg/metrics"
	"github.com/manzanit0/storefront/pkg/whttp"
)

const DefaultLabel = "Bharatpur-Rajasthan"

type LocationResolver interface {
	Resolve(ctx context.Context) location.State
}

// Snapshot is what a rendering layer draws. Products is always the current
// catalog filtered by Query.
type Snapshot struct {
	Loading  bool            `json:"loading"`
	Query    string          `json:"query"`
	Label    string          `json:"label"`
	Products catalog.Catalog `json:"products"`
	Location location.State  `json:"location"`
}

type Viewer struct {
	source       catalog.Source
	resolver     LocationResolver
	recorder     diagnostics.Recorder
	policy       whttp.Policy
	metrics      *metrics.Metrics
	defaultLabel string
	listeners    []func(Snapshot)

	// notifyMu orders deliveries; delivered is the last stamp handed out.
	notifyMu  sync.Mutex
	delivered uint64

	mu         sync.Mutex
	stamp      uint64
	generation uint64
	mounted    bool
	cancel     context.CancelFunc
	catalog    catalog.Catalog
	query      string
	loading    bool
	location   location.State
}

type Option func(*Viewer)

func WithRecorder(r diagnostics.Recorder) Option {
	return func(v *Viewer) {
		v.recorder = r
	}
}

func WithPolicy(p whttp.Policy) Option {
	return func(v *Viewer) {
		v.policy = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Viewer) {
		v.metrics = m
	}
}

func WithDefaultLabel(label string) Option {
	return func(v *Viewer) {
		if label != "" {
			v.defaultLabel = label
		}
	}
}

// WithListener registers fn to be called with a fresh snapshot after every
// state change.
func WithListener(fn func(Snapshot)) Option {
	return func(v *Viewer) {
		v.listeners = append(v.listeners, fn)
	}
}

// New creates an unmounted viewer. A nil resolver leaves the label on its
// default.
func New(source catalog.Source, resolver LocationResolver, opts ...Option) *Viewer {
	v := &Viewer{
		source:       source,
		resolver:     resolver,
		recorder:     diagnostics.LogRecorder{},
		defaultLabel: DefaultLabel,
		catalog:      catalog.Catalog{},
		loading:      true,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Mount starts a new activation: one catalog fetch and one location
// resolution. Any activation still in flight is superseded and its results
// are dropped. The returned channel is closed once both flows of this
// activation have finished.
func (v *Viewer) Mount(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}

	if !v.mounted {
		v.mounted = true
		v.metrics.ViewerMounted()
	}

	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.loading = true
	change := v.changed()
	v.mu.Unlock()

	v.notify(change)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.fetchCatalog(ctx, gen)
	}()

	if v.resolver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.resolveLocation(ctx, gen)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

// Close tears the viewer down. Results arriving afterwards are discarded.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return
	}

	v.mounted = false
	v.generation++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	v.metrics.ViewerClosed()
}

func (v *Viewer) SetQuery(q string) {
	v.mu.Lock()
	v.query = q
	change := v.changed()
	v.mu.Unlock()

	v.notify(change)
}

func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.snapshotLocked()
}

func (v *Viewer) snapshotLocked() Snapshot {
	return Snapshot{
		Loading:  v.loading,
		Query:    v.query,
		Label:    Label(v.location, v.defaultLabel),
		Products: catalog.Filter(v.catalog, v.query),
		Location: v.location,
	}
}

// Label is the resolved formatted address, or fallback when there is none.
// Resolution errors are never shown.
func Label(s location.State, fallback string) string {
	if s.Place != nil && s.Place.FormattedAddress != "" {
		return s.Place.FormattedAddress
	}

	return fallback
}

func (v *Viewer) fetchCatalog(ctx context.Context, gen uint64) {
	t0 := time.Now()
	products, err := whttp.Call(ctx, v.policy, v.source.Products)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	v.metrics.ObserveCatalogFetch(outcome, time.Since(t0).Seconds())

	applied := v.apply(gen, func() {
		if err == nil {
			v.catalog = products
		}
		v.loading = false
	})
	if !applied {
		slog.InfoContext(ctx, "discarding catalog result of a stale activation", "generation", gen)
		v.metrics.ObserveDiscarded("catalog")
		return
	}

	if err != nil {
		// Fetch errors never reach the snapshot, they are only recorded.
		if rerr := v.recorder.Record(context.WithoutCancel(ctx), "catalog", err); rerr != nil {
			slog.ErrorContext(ctx, "record catalog failure", "error", rerr.Error())
		}
		return
	}

	slog.InfoContext(ctx, "catalog fetched", "products", len(products))
}

func (v *Viewer) resolveLocation(ctx context.Context, gen uint64) {
	state := v.resolver.Resolve(ctx)

	applied := v.apply(gen, func() {
		v.location = state
	})
	if !applied {
		slog.InfoContext(ctx, "discarding location result of a stale activation", "generation", gen)
		v.metrics.ObserveDiscarded("location")
	}
}

// apply runs fn under the lock if gen is still the live activation.
func (v *Viewer) apply(gen uint64, fn func()) bool {
	v.mu.Lock()
	if !v.mounted || gen != v.generation {
		v.mu.Unlock()
		return false
	}

	fn()
	change := v.changed()
	v.mu.Unlock()

	v.notify(change)
	return true
}

type stampedSnapshot struct {
	stamp    uint64
	snapshot Snapshot
}

// changed stamps the current state. mu must be held.
func (v *Viewer) changed() stampedSnapshot {
	v.stamp++
	if len(v.listeners) == 0 {
		return stampedSnapshot{stamp: v.stamp}
	}

	return stampedSnapshot{stamp: v.stamp, snapshot: v.snapshotLocked()}
}

// notify hands s to the listeners unless a newer state was delivered
// already, so the last call a listener sees is always the current state.
// Listeners must not change the viewer.
func (v *Viewer) notify(s stampedSnapshot) {
	if len(v.listeners) == 0 {
		return
	}

	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	if s.stamp <= v.delivered {
		return
	}
	v.delivered = s.stamp

	for _, fn := range v.listeners {
		fn(s.snapshot)
	}
}
