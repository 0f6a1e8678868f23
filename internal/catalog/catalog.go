// Package catalog stores the sticker assets the editor can place, grouped by
// category. A catalog is filled once at start-up and is read-only after
// that; session-local additions live in their own Store layered in front of
// it with Chain.
package catalog

import (
	"sync"

	"facial-editor/internal/raster"
	"facial-editor/pkg/errors"
)

// CustomCategory is the category user-uploaded features are filed under.
const CustomCategory = "custom"

// Lookup resolves a category and name to an asset. A miss returns an
// ASSET_NOT_FOUND error.
type Lookup interface {
	Get(category, name string) (*raster.Asset, error)
}

// Store is an in-memory catalog. Categories and names keep the order in
// which they were first added.
type Store struct {
	mu         sync.RWMutex
	assets     map[string]map[string]*raster.Asset
	categories []string
	names      map[string][]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		assets: make(map[string]map[string]*raster.Asset),
		names:  make(map[string][]string),
	}
}

// Add inserts or replaces an asset.
func (s *Store) Add(a *raster.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.assets[a.Category]
	if !ok {
		byName = make(map[string]*raster.Asset)
		s.assets[a.Category] = byName
		s.categories = append(s.categories, a.Category)
	}
	if _, exists := byName[a.Name]; !exists {
		s.names[a.Category] = append(s.names[a.Category], a.Name)
	}
	byName[a.Name] = a
}

// Merge adds every asset of other to s.
func (s *Store) Merge(other *Store) {
	for _, cat := range other.Categories() {
		for _, a := range other.Entries(cat) {
			s.Add(a)
		}
	}
}

// Get implements Lookup.
func (s *Store) Get(category, name string) (*raster.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.assets[category][name]; ok {
		return a, nil
	}
	return nil, errors.New(errors.ErrCodeAssetNotFound, "feature %q not found in category %q", name, category)
}

// Has reports whether the asset exists.
func (s *Store) Has(category, name string) bool {
	_, err := s.Get(category, name)
	return err == nil
}

// Categories returns the category names in insertion order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.categories...)
}

// Names returns the asset names of a category in insertion order.
func (s *Store) Names(category string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names[category]...)
}

// Entries returns the assets of a category in insertion order.
func (s *Store) Entries(category string) []*raster.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.names[category]
	out := make([]*raster.Asset, 0, len(names))
	for _, n := range names {
		out = append(out, s.assets[category][n])
	}
	return out
}

// Len returns the total number of assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byName := range s.assets {
		n += len(byName)
	}
	return n
}

// Chain tries each Lookup in order and returns the first hit.
type Chain []Lookup

// Get implements Lookup.
func (c Chain) Get(category, name string) (*raster.Asset, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if a, err := l.Get(category, name); err == nil {
			return a, nil
		} else if !errors.Is(err, errors.ErrCodeAssetNotFound) {
			return nil, err
		}
	}
	return nil, errors.New(errors.ErrCodeAssetNotFound, "feature %q not found in category %q", name, category)
}

// Listing is a category with its asset names, as shown in pickers.
type Listing struct {
	Category string   `json:"category"`
	Names    []string `json:"names"`
}

// List returns every category of the given stores, merged in order. Names
// present in more than one store are listed once.
func List(stores ...*Store) []Listing {
	var out []Listing
	index := make(map[string]int)
	seen := make(map[string]map[string]bool)
	for _, s := range stores {
		if s == nil {
			continue
		}
		for _, cat := range s.Categories() {
			i, ok := index[cat]
			if !ok {
				i = len(out)
				index[cat] = i
				out = append(out, Listing{Category: cat})
				seen[cat] = make(map[string]bool)
			}
			for _, n := range s.Names(cat) {
				if !seen[cat][n] {
					seen[cat][n] = true
					out[i].Names = append(out[i].Names, n)
				}
			}
		}
	}
	return out
}
