package sessionctx

import (
	"context"
	"fmt"
)

// Opener gives read-only access to the persisted state of the context that
// spawned the current one. The opener may vanish at any time.
type Opener struct {
	store Store
	id    string
}

// NewOpener binds the opener context. An empty id means there is no opener.
func NewOpener(store Store, openerID string) *Opener {
	return &Opener{store: store, id: openerID}
}

// ID returns the opener context id.
func (o *Opener) ID() string {
	return o.id
}

// Closed reports whether the opener is gone: never configured, or holding no
// state any more. Store failures count as closed.
func (o *Opener) Closed(ctx context.Context) bool {
	if o == nil || o.store == nil || o.id == "" {
		return true
	}
	exists, err := o.store.Exists(ctx, o.id)
	return err != nil || !exists
}

// GetItem reads a value of the opener context.
func (o *Opener) GetItem(ctx context.Context, key string) (string, bool, error) {
	if o == nil || o.store == nil || o.id == "" {
		return "", false, fmt.Errorf("no opener context")
	}
	return o.store.Get(ctx, o.id, key)
}
