package controller

import (
	"context"
	"encoding/json"

	"github.com/ratthapon/talad/internal/catalog"
)

// Runtime is the non-generic face of a controller. The daemon routes the
// control API over all eight kinds through this interface without caring
// about the concrete record types.
type Runtime interface {
	Kind() catalog.Kind
	Phase() Phase
	Size() int
	Load(ctx context.Context) error
	ItemsJSON() ([]byte, error)
	CreateJSON(ctx context.Context, payload map[string]any) ([]byte, error)
	UpdateJSON(ctx context.Context, id catalog.ID, fields map[string]any) ([]byte, *catalog.CoercionReport, error)
	DeleteListing(ctx context.Context, id catalog.ID) error
}

// Size returns the number of cached listings.
func (c *Controller[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ItemsJSON marshals the cache snapshot.
func (c *Controller[T]) ItemsJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

// CreateJSON runs CreateListing and marshals the server-assigned record.
func (c *Controller[T]) CreateJSON(ctx context.Context, payload map[string]any) ([]byte, error) {
	created, err := c.CreateListing(ctx, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(created)
}

// UpdateJSON drives the commit pipeline for one remote update. Each request
// gets a private draft: concurrent updates must not cross-merge through a
// shared edit buffer, and a screen's open buffer stays untouched. The
// returned report carries any coercion drops.
func (c *Controller[T]) UpdateJSON(ctx context.Context, id catalog.ID, fields map[string]any) ([]byte, *catalog.CoercionReport, error) {
	draft := catalog.NewDraft()
	for name, value := range fields {
		draft.Set(name, value)
	}

	c.mu.Lock()
	policy := c.policy
	c.mu.Unlock()

	report, err := c.commitDraft(ctx, id, draft, policy)
	if err != nil {
		return nil, report, err
	}

	c.mu.Lock()
	item, found := c.findLocked(id)
	c.mu.Unlock()
	if !found {
		return []byte("null"), report, nil
	}
	data, err := json.Marshal(item)
	return data, report, err
}
