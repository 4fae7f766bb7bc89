// Package collections holds the static, read-only table of updatable
// collections and the lookups over it.
package collections

import (
	"fmt"

	"market-collector/src/models"
)

// Registry is safe for concurrent use: it is never mutated after New.
type Registry struct {
	order       []string
	descriptors map[string]models.MCollectionDescriptor
}

// -----------------------------------------------------------------------------

// New builds a registry preserving declaration order. Later duplicates are
// reported by Validate and otherwise ignored.
func New(descriptors []models.MCollectionDescriptor) *Registry {
	r := &Registry{descriptors: make(map[string]models.MCollectionDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.descriptors[d.Name]; dup {
			continue
		}
		r.order = append(r.order, d.Name)
		r.descriptors[d.Name] = d
	}
	return r
}

// Default is the registry of every option collection.
func Default() *Registry {
	return New(OptionCollections())
}

// -----------------------------------------------------------------------------

func (r *Registry) Get(name string) (models.MCollectionDescriptor, bool) {
	if r == nil {
		return models.MCollectionDescriptor{}, false
	}
	d, ok := r.descriptors[name]
	return d, ok
}

// -----------------------------------------------------------------------------

// ListNames returns every collection name in declaration order.
func (r *Registry) ListNames() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// -----------------------------------------------------------------------------

// Validate checks a descriptor table: names are unique and non-empty, select
// params carry options, and every collection enables at least one mode.
func Validate(descriptors []models.MCollectionDescriptor) error {
	seen := make(map[string]bool, len(descriptors))
	for i, d := range descriptors {
		if d.Name == "" {
			return fmt.Errorf("collection %d has no name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate collection %s", d.Name)
		}
		seen[d.Name] = true

		if !d.SingleUpdate.Enabled && !d.BatchUpdate.Enabled {
			return fmt.Errorf("collection %s enables no update mode", d.Name)
		}
		for _, mode := range []models.MUpdateModeConfig{d.SingleUpdate, d.BatchUpdate} {
			names := make(map[string]bool)
			for _, p := range mode.Params {
				if p.Name == "" {
					return fmt.Errorf("collection %s has a param without a name", d.Name)
				}
				if names[p.Name] {
					return fmt.Errorf("collection %s declares param %s twice", d.Name, p.Name)
				}
				names[p.Name] = true
				if p.Kind == models.ParamSelect && len(p.Options) == 0 {
					return fmt.Errorf("collection %s: select param %s has no options", d.Name, p.Name)
				}
			}
		}
	}
	return nil
}
