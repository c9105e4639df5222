package links

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
)

const registryTTL = 30 * time.Second

// Registry serves a profile's links to the analytics side. Listings are
// cached briefly; mutations through the registry clear the cache.
type Registry struct {
	dbManager cartridge.DBManager
	cache     *cache.Cache[string, []Link]
}

func NewRegistry(dbManager cartridge.DBManager, logger *slog.Logger) *Registry {
	fetchFunc := func(profileID string) ([]Link, error) {
		return ListLinks(dbManager.GetConnection(), profileID)
	}
	return &Registry{
		dbManager: dbManager,
		cache:     cache.NewCache[string, []Link](logger, registryTTL, fetchFunc),
	}
}

// ListLinks returns every link of the profile, active or not.
func (r *Registry) ListLinks(ctx context.Context, profileID string) ([]Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := r.cache.Get(profileID)
	if err != nil {
		return nil, err
	}
	// Callers may reorder the slice.
	return append([]Link(nil), result...), nil
}

func (r *Registry) Create(link *Link) error {
	defer r.cache.Clear()
	return CreateLink(r.dbManager.GetConnection(), link)
}

func (r *Registry) Update(link *Link) error {
	defer r.cache.Clear()
	return UpdateLink(r.dbManager.GetConnection(), link)
}

func (r *Registry) Delete(id string) error {
	defer r.cache.Clear()
	return DeleteLink(r.dbManager.GetConnection(), id)
}

// Invalidate drops cached listings.
func (r *Registry) Invalidate() {
	r.cache.Clear()
}
