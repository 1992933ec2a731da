// Package catalog maintains the curated species registry.
package catalog

import (
	"errors"
	"strings"
	"sync"

	"oceanos.org/internal/ids"
)

var (
	ErrNotFound   = errors.New("catalog: species not found")
	ErrValidation = errors.New("catalog: invalid species record")
)

// Taxonomy carries the coarse classification ranks the registry tracks.
type Taxonomy struct {
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
}

type Species struct {
	ID             string   `json:"id"`
	ScientificName string   `json:"scientificName"`
	CommonName     string   `json:"commonName"`
	Taxonomy       Taxonomy `json:"taxonomy"`
	CuratorNotes   string   `json:"curatorNotes,omitempty"`
	LastReviewedBy string   `json:"lastReviewedBy,omitempty"`
}

// UpdateFields applies partial updates. Nil members leave the record untouched.
type UpdateFields struct {
	ScientificName *string
	CommonName     *string
	Taxonomy       *Taxonomy
	CuratorNotes   *string
	LastReviewedBy *string
}

// Registry is an in-memory species catalog safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Species
	order []string
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Species)}
}

// Create registers a new species and assigns it a fresh id.
func (r *Registry) Create(sp Species) (Species, error) {
	if strings.TrimSpace(sp.ScientificName) == "" {
		return Species{}, ErrValidation
	}
	sp.ID = ids.New()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sp.ID] = sp
	r.order = append(r.order, sp.ID)
	return sp, nil
}

// Load inserts a pre-built record keeping its id. Used for demo seeding.
func (r *Registry) Load(sp Species) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[sp.ID]; !ok {
		r.order = append(r.order, sp.ID)
	}
	r.byID[sp.ID] = sp
}

func (r *Registry) Get(id string) (Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sp, ok := r.byID[id]
	if !ok {
		return Species{}, ErrNotFound
	}
	return sp, nil
}

// Search matches the query against scientific and common names,
// case-insensitively. An empty query returns the whole catalog.
func (r *Registry) Search(query string) []Species {
	q := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Species, 0, len(r.order))
	for _, id := range r.order {
		sp := r.byID[id]
		if q == "" ||
			strings.Contains(strings.ToLower(sp.ScientificName), q) ||
			strings.Contains(strings.ToLower(sp.CommonName), q) {
			out = append(out, sp)
		}
	}
	return out
}

// Count reports the number of catalog records.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) Update(id string, fields UpdateFields) (Species, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.byID[id]
	if !ok {
		return Species{}, ErrNotFound
	}
	if fields.ScientificName != nil {
		if strings.TrimSpace(*fields.ScientificName) == "" {
			return Species{}, ErrValidation
		}
		sp.ScientificName = *fields.ScientificName
	}
	if fields.CommonName != nil {
		sp.CommonName = *fields.CommonName
	}
	if fields.Taxonomy != nil {
		sp.Taxonomy = *fields.Taxonomy
	}
	if fields.CuratorNotes != nil {
		sp.CuratorNotes = *fields.CuratorNotes
	}
	if fields.LastReviewedBy != nil {
		sp.LastReviewedBy = *fields.LastReviewedBy
	}
	r.byID[id] = sp
	return sp, nil
}

// SeedDemo loads the curated starter catalog.
func (r *Registry) SeedDemo(reviewerID string) {
	r.Load(Species{
		ID:             "sp_1",
		ScientificName: "Delphinus delphis",
		CommonName:     "Common Dolphin",
		Taxonomy:       Taxonomy{Kingdom: "Animalia", Phylum: "Chordata", Class: "Mammalia"},
		CuratorNotes:   "Often sighted near continental shelves.",
		LastReviewedBy: reviewerID,
	})
	r.Load(Species{
		ID:             "sp_2",
		ScientificName: "Thunnus albacares",
		CommonName:     "Yellowfin Tuna",
		Taxonomy:       Taxonomy{Kingdom: "Animalia", Phylum: "Chordata", Class: "Actinopterygii"},
		CuratorNotes:   "Pelagic species; schools near temperature fronts.",
		LastReviewedBy: reviewerID,
	})
}
