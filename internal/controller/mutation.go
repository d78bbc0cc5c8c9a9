package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/ratthapon/talad/internal/catalog"
	"go.uber.org/zap"
)

// ErrNotEditing is returned when a field is set or committed for a listing
// that was never put into edit mode.
var ErrNotEditing = fmt.Errorf("listing is not in edit mode")

// BeginEdit opens an empty edit buffer for the listing. No network call.
// Multiple listings may be in edit mode concurrently, one buffer each.
func (c *Controller[T]) BeginEdit(id catalog.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.drafts[id]; !ok {
		c.drafts[id] = catalog.NewDraft()
	}
}

// Editing reports whether the listing has an open edit buffer.
func (c *Controller[T]) Editing(id catalog.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.drafts[id]
	return ok
}

// SetField merges one field override into the listing's edit buffer, last
// write wins. Values are stored as entered; typed coercion happens at
// commit, not on every keystroke.
func (c *Controller[T]) SetField(id catalog.ID, field string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	draft, ok := c.drafts[id]
	if !ok {
		return ErrNotEditing
	}
	draft.Set(field, value)
	return nil
}

// CancelEdit discards the edit buffer and exits edit mode. No network call.
func (c *Controller[T]) CancelEdit(id catalog.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, id)
}

// CommitEdit coerces the edit buffer and, when anything survives coercion,
// sends the update. On success the cache entry is replaced with the
// server's record. On failure edit mode is exited but the cache keeps the
// pre-edit server state. An empty buffer exits edit mode with no call.
// The report lists fields dropped by coercion so the caller can surface
// them.
func (c *Controller[T]) CommitEdit(ctx context.Context, id catalog.ID) (*catalog.CoercionReport, error) {
	c.mu.Lock()
	draft, ok := c.drafts[id]
	if !ok {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}
	// Coercion iterates the draft outside the lock; a snapshot keeps a
	// concurrent SetField from racing the map walk.
	snapshot := draft.Clone()
	policy := c.policy
	c.mu.Unlock()

	report, err := c.commitDraft(ctx, id, snapshot, policy)
	if err != nil {
		var failed *catalog.CoercionReport
		if errors.As(err, &failed) {
			// Abort policy: keep the buffer so the user can fix the fields.
			return report, err
		}
		c.CancelEdit(id)
		return report, err
	}
	c.CancelEdit(id)
	return report, nil
}

// commitDraft coerces one draft and, when anything survives coercion, sends
// the update and replaces the cache entry. The edit buffer is the caller's
// to keep or discard.
func (c *Controller[T]) commitDraft(ctx context.Context, id catalog.ID, draft *catalog.Draft, policy catalog.CoercionPolicy) (*catalog.CoercionReport, error) {
	payload, report, err := draft.Coerce(catalog.SchemaFor(c.kind), policy)
	if err != nil {
		return report, fmt.Errorf("commit %s/%s: %w", c.kind, id, err)
	}
	if !report.Clean() {
		c.logger.Warn("fields dropped at commit",
			zap.String("kind", string(c.kind)), zap.String("id", string(id)),
			zap.Int("dropped", len(report.Dropped)))
	}

	if len(payload) == 0 {
		return report, nil
	}

	updated, err := c.res.Update(ctx, id, payload)
	if err != nil {
		c.logger.Error("update failed", zap.String("kind", string(c.kind)), zap.String("id", string(id)), zap.Error(err))
		return report, fmt.Errorf("update %s/%s: %w", c.kind, id, err)
	}

	c.mu.Lock()
	c.version++
	for i, item := range c.items {
		if item.Key() == id {
			c.items[i] = updated
			break
		}
	}
	if c.selected != nil && (*c.selected).Key() == id {
		c.selected = &updated
	}
	c.mu.Unlock()
	c.publish("listing.updated", map[string]string{"kind": string(c.kind), "id": string(id)})
	return report, nil
}

// CreateListing validates the payload, posts it, then refreshes the whole
// cache from the backend rather than appending locally. The server-assigned
// record is returned. A validation failure issues no network call.
func (c *Controller[T]) CreateListing(ctx context.Context, payload map[string]any) (T, error) {
	var zero T
	if err := catalog.ValidateCreate(c.kind, payload); err != nil {
		return zero, err
	}

	created, err := c.res.Create(ctx, payload)
	if err != nil {
		c.logger.Error("create failed", zap.String("kind", string(c.kind)), zap.Error(err))
		return zero, fmt.Errorf("create %s: %w", c.kind, err)
	}

	c.mu.Lock()
	c.version++
	c.mu.Unlock()
	c.publish("listing.created", map[string]string{"kind": string(c.kind), "id": string(created.Key())})

	// Full refresh keeps the cache an exact copy of the server's order.
	if err := c.Load(ctx); err != nil {
		c.logger.Error("refresh after create failed", zap.String("kind", string(c.kind)), zap.Error(err))
	}
	return created, nil
}

// DeleteListing removes the listing on the backend, then drops it from the
// cache and clears the selection if it was selected. Deleting an id that is
// not cached leaves the cache as is.
func (c *Controller[T]) DeleteListing(ctx context.Context, id catalog.ID) error {
	if err := c.res.Remove(ctx, id); err != nil {
		c.logger.Error("delete failed", zap.String("kind", string(c.kind)), zap.String("id", string(id)), zap.Error(err))
		return fmt.Errorf("delete %s/%s: %w", c.kind, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	kept := c.items[:0]
	for _, item := range c.items {
		if item.Key() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	if c.selected != nil && (*c.selected).Key() == id {
		c.selected = nil
		c.detailVisible = false
		if c.phase == PhaseDetail {
			c.phase = PhaseLoaded
		}
	}
	delete(c.drafts, id)
	if c.metrics != nil {
		c.metrics.SetCachedListings(string(c.kind), len(c.items))
	}
	c.publish("listing.deleted", map[string]string{"kind": string(c.kind), "id": string(id)})
	return nil
}
