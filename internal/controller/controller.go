package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/ratthapon/talad/internal/bus"
	"github.com/ratthapon/talad/internal/catalog"
	"github.com/ratthapon/talad/internal/metrics"
	"go.uber.org/zap"
)

// Resource is the injected client contract for one resource kind. The REST
// implementation lives in internal/rest; tests substitute a fake.
type Resource[T catalog.Record] interface {
	FetchAll(ctx context.Context) ([]T, error)
	FetchOne(ctx context.Context, id catalog.ID) (T, error)
	Create(ctx context.Context, payload map[string]any) (T, error)
	Update(ctx context.Context, id catalog.ID, payload map[string]any) (T, error)
	Remove(ctx context.Context, id catalog.ID) error
}

// Phase is the screen-facing state of one controller.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseDetail  Phase = "detail"
)

// Controller owns the in-memory cache, selection state and edit buffers for
// one resource kind. One instance exists per active screen; there is no
// cross-screen shared cache. State mutations happen under the mutex while
// network calls run outside it; a version stamp bumped by every successful
// mutation lets stale load responses be discarded instead of clobbering
// newer state.
type Controller[T catalog.Record] struct {
	kind    catalog.Kind
	res     Resource[T]
	bus     *bus.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
	policy  catalog.CoercionPolicy

	mu            sync.Mutex
	items         []T
	selected      *T
	detailVisible bool
	phase         Phase
	drafts        map[catalog.ID]*catalog.Draft
	version       uint64
}

// New creates a controller for one kind. bus and metrics may be nil.
func New[T catalog.Record](kind catalog.Kind, res Resource[T], b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Controller[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller[T]{
		kind:    kind,
		res:     res,
		bus:     b,
		metrics: m,
		logger:  logger,
		policy:  catalog.PolicyDrop,
		phase:   PhaseIdle,
		drafts:  make(map[catalog.ID]*catalog.Draft),
	}
}

// SetCoercionPolicy switches between dropping and aborting on coercion
// failures at commit time. The default matches the historical drop behavior.
func (c *Controller[T]) SetCoercionPolicy(p catalog.CoercionPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// Kind returns the resource kind this controller owns.
func (c *Controller[T]) Kind() catalog.Kind { return c.kind }

// Phase returns the current screen phase.
func (c *Controller[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Items returns a snapshot of the cache in server order.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Selected returns the selected listing, if any.
func (c *Controller[T]) Selected() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		var zero T
		return zero, false
	}
	return *c.selected, true
}

// DetailVisible reports whether the detail view flag is set.
func (c *Controller[T]) DetailVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detailVisible
}

// Load replaces the entire cache with the backend's collection. On failure
// the cache is left untouched and the previous phase restored; load errors
// are passive, logged rather than surfaced. A response that raced with a
// newer mutation is discarded.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	prev := c.phase
	startVersion := c.version
	c.phase = PhaseLoading
	c.mu.Unlock()

	items, err := c.res.FetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.phase = prev
		c.logger.Error("load failed", zap.String("kind", string(c.kind)), zap.Error(err))
		c.publish("listing.load_failed", map[string]string{"kind": string(c.kind), "error": err.Error()})
		return fmt.Errorf("load %s: %w", c.kind, err)
	}

	if c.version != startVersion {
		// A mutation confirmed while this load was in flight; its cache
		// edit is newer than this response.
		c.phase = prev
		c.logger.Info("stale load discarded", zap.String("kind", string(c.kind)))
		return nil
	}

	c.items = items
	c.phase = PhaseLoaded
	if c.detailVisible {
		c.phase = PhaseDetail
	}
	if c.metrics != nil {
		c.metrics.SetCachedListings(string(c.kind), len(items))
	}
	c.publish("listing.loaded", map[string]any{"kind": string(c.kind), "count": len(items)})
	return nil
}

// SelectForDetails marks one listing as selected and shows the detail view.
// Kinds with a dedicated detail endpoint fetch the richer record; everyone
// else reuses the cached entry. A failed detail fetch falls back to the
// cached entry rather than blocking the screen.
func (c *Controller[T]) SelectForDetails(ctx context.Context, id catalog.ID) (T, error) {
	c.mu.Lock()
	cached, found := c.findLocked(id)
	c.mu.Unlock()

	item := cached
	if c.kind.HasDetailEndpoint() {
		fetched, err := c.res.FetchOne(ctx, id)
		if err != nil {
			if !found {
				var zero T
				return zero, fmt.Errorf("select %s/%s: %w", c.kind, id, err)
			}
			c.logger.Error("detail fetch failed, using cached entry",
				zap.String("kind", string(c.kind)), zap.String("id", string(id)), zap.Error(err))
		} else {
			item = fetched
			found = true
		}
	}
	if !found {
		var zero T
		return zero, fmt.Errorf("select %s/%s: not in cache", c.kind, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &item
	c.detailVisible = true
	c.phase = PhaseDetail
	return item, nil
}

// ClearSelection drops the selection and hides the detail view.
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.detailVisible = false
	if c.phase == PhaseDetail {
		c.phase = PhaseLoaded
	}
}

// findLocked locates a cached item by id. Callers hold c.mu.
func (c *Controller[T]) findLocked(id catalog.ID) (T, bool) {
	for _, item := range c.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) publish(kind string, payload any) {
	if c.bus != nil {
		c.bus.Publish(bus.Event{Kind: kind, Payload: payload})
	}
}
