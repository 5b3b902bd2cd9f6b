package source

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// =============================================================================
// DISCOVERY - Which source holds the fiscal calendar
// =============================================================================

// Origin says how a source id was resolved.
type Origin string

const (
	OriginOverride   Origin = "override"
	OriginCached     Origin = "cached"
	OriginDiscovered Origin = "discovered"
)

// Resolved is the outcome of discovery.
type Resolved struct {
	ID     string
	Name   string
	Origin Origin
}

// Config controls discovery. Zero values use Marker and
// PreferredCollections.
type Config struct {
	// Override pins a source id and skips discovery entirely.
	Override             string
	Marker               string
	PreferredCollections []string
}

// Discovery resolves the source id in this order:
//
//  1. Config.Override, when set
//  2. the id discovered earlier in this process
//  3. a catalog search for the marker, keeping sources whose description
//     contains it, preferring preferred collections, else the first match
type Discovery struct {
	catalog Catalog
	cfg     Config

	mu     sync.Mutex
	cached *Resolved
}

// NewDiscovery creates a discovery over catalog.
func NewDiscovery(catalog Catalog, cfg Config) *Discovery {
	if cfg.Marker == "" {
		cfg.Marker = Marker
	}
	if cfg.PreferredCollections == nil {
		cfg.PreferredCollections = PreferredCollections
	}
	return &Discovery{catalog: catalog, cfg: cfg}
}

// Resolve returns the source to load rows from.
func (d *Discovery) Resolve(ctx context.Context) (Resolved, error) {
	if id := strings.TrimSpace(d.cfg.Override); id != "" {
		return Resolved{ID: id, Origin: OriginOverride}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil {
		r := *d.cached
		r.Origin = OriginCached
		return r, nil
	}

	if d.catalog == nil {
		return Resolved{}, fmt.Errorf("%w: no override and no catalog to search", ErrSourceNotFound)
	}

	found, err := d.catalog.SearchSources(ctx, d.cfg.Marker)
	if err != nil {
		return Resolved{}, fmt.Errorf("search sources: %w", err)
	}

	best, ok := pick(found, d.cfg.Marker, d.cfg.PreferredCollections)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: no source has %s in its description", ErrSourceNotFound, d.cfg.Marker)
	}

	collection := best.Collection
	if collection == "" {
		collection = "root"
	}
	log.Printf("[Discovery] Discovered source %q (ID: %s) in collection %q", best.Name, best.ID, collection)

	d.cached = &Resolved{ID: best.ID, Name: best.Name, Origin: OriginDiscovered}
	return *d.cached, nil
}

// ClearCache forgets the discovered id so the next Resolve searches again.
func (d *Discovery) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
}

func pick(found []SourceInfo, marker string, preferred []string) (SourceInfo, bool) {
	var marked []SourceInfo
	for _, s := range found {
		if strings.Contains(s.Description, marker) {
			marked = append(marked, s)
		}
	}
	if len(marked) == 0 {
		return SourceInfo{}, false
	}

	for _, s := range marked {
		collection := strings.ToLower(s.Collection)
		if collection == "" {
			continue
		}
		for _, name := range preferred {
			if strings.Contains(collection, strings.ToLower(name)) {
				return s, true
			}
		}
	}
	return marked[0], true
}
