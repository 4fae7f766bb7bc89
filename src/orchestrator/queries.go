package orchestrator

import (
	"context"

	"market-collector/src/models"
)

// ClearCollection deletes every document of a collection, through its handler
// when one resolves.
func (o *Orchestrator) ClearCollection(ctx context.Context, name string) models.MClearResult {
	if _, ok := o.registry.Get(name); !ok {
		return models.MClearResult{Message: "unknown collection: " + name}
	}

	var (
		n   int64
		err error
	)
	if h, ok := o.resolver.Resolve(name); ok {
		n, err = h.Clear(ctx)
	} else {
		n, err = o.persistence.Clear(ctx, name)
	}
	if err != nil {
		o.logger.Error("Clearing %s failed: %v", name, err)
		return models.MClearResult{Message: err.Error()}
	}

	o.logger.Info("Cleared %d documents from %s", n, name)
	return models.MClearResult{Success: true, DeletedCount: n, Message: "collection cleared"}
}

// -----------------------------------------------------------------------------

// GetCollectionStats returns the stored count and last write time.
func (o *Orchestrator) GetCollectionStats(ctx context.Context, name string) models.MCollectionStats {
	desc, ok := o.registry.Get(name)
	if !ok {
		return models.MCollectionStats{CollectionName: name, Error: "unknown collection: " + name}
	}

	var (
		count int64
		last  string
		err   error
	)
	if h, ok := o.resolver.Resolve(name); ok {
		count, last, err = h.Overview(ctx)
	} else {
		count, last, err = o.persistence.Overview(ctx, name)
	}
	stats := models.MCollectionStats{CollectionName: name, DisplayName: desc.DisplayName}
	if err != nil {
		stats.Error = err.Error()
		return stats
	}
	stats.Success = true
	stats.TotalCount = count
	stats.LastUpdate = last
	return stats
}

// -----------------------------------------------------------------------------

// ListSupportedCollections returns every descriptor in registry order.
func (o *Orchestrator) ListSupportedCollections() []models.MCollectionDescriptor {
	names := o.registry.ListNames()
	out := make([]models.MCollectionDescriptor, 0, len(names))
	for _, n := range names {
		if d, ok := o.registry.Get(n); ok {
			out = append(out, d)
		}
	}
	return out
}

// GetCollectionConfig returns the descriptor of one collection.
func (o *Orchestrator) GetCollectionConfig(name string) (models.MCollectionDescriptor, bool) {
	return o.registry.Get(name)
}

// -----------------------------------------------------------------------------

// GetCollectionData reads one page of stored documents, newest first unless a
// sort field is given.
func (o *Orchestrator) GetCollectionData(ctx context.Context, name string, page, pageSize int, sortField string, descending bool) models.MPage {
	if _, ok := o.registry.Get(name); !ok {
		return models.MPage{Message: "unknown collection: " + name, Data: []models.MRecord{}}
	}
	p, err := o.persistence.Page(ctx, name, page, pageSize, sortField, descending)
	if err != nil {
		return models.MPage{Message: err.Error(), Data: []models.MRecord{}}
	}
	return p
}
