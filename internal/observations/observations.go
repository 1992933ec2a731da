// Package observations stores validated marine sightings and serves
// them as GeoJSON for map layers.
package observations

import (
	"errors"
	"strings"
	"sync"
	"time"

	"oceanos.org/internal/ids"
)

var (
	ErrNotFound   = errors.New("observations: not found")
	ErrValidation = errors.New("observations: invalid record")
)

// Point is a GeoJSON point geometry, coordinates ordered lon, lat.
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(lon, lat float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

type Observation struct {
	ID          string    `json:"id"`
	SpeciesID   string    `json:"speciesId"`
	SpeciesName string    `json:"speciesName"`
	ObservedAt  time.Time `json:"observedAt"`
	Geometry    Point     `json:"geom"`
	RecordedBy  string    `json:"recordedBy"`
	ValidatedBy string    `json:"validatedBy,omitempty"`
	DatasetID   string    `json:"datasetId"`
	Depth       float64   `json:"depth"`
	Temperature float64   `json:"temperature"`
}

// Filter narrows a geospatial query. Zero-value fields are ignored;
// BBox is minLon, minLat, maxLon, maxLat.
type Filter struct {
	SpeciesID string
	Start     time.Time
	End       time.Time
	BBox      *[4]float64
}

func (f Filter) matches(o Observation) bool {
	if f.SpeciesID != "" && o.SpeciesID != f.SpeciesID {
		return false
	}
	if !f.Start.IsZero() && o.ObservedAt.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && o.ObservedAt.After(f.End) {
		return false
	}
	if f.BBox != nil {
		lon, lat := o.Geometry.Coordinates[0], o.Geometry.Coordinates[1]
		if lon < f.BBox[0] || lon > f.BBox[2] || lat < f.BBox[1] || lat > f.BBox[3] {
			return false
		}
	}
	return true
}

// Feature is a GeoJSON feature wrapping one observation.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   Point          `json:"geometry"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Store is an in-memory observation log safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]Observation
	order []string
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{byID: make(map[string]Observation), now: time.Now}
}

func (s *Store) Create(o Observation) (Observation, error) {
	if strings.TrimSpace(o.SpeciesID) == "" || o.Geometry.Type != "Point" {
		return Observation{}, ErrValidation
	}
	o.ID = ids.New()
	if o.ObservedAt.IsZero() {
		o.ObservedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[o.ID] = o
	s.order = append(s.order, o.ID)
	return o, nil
}

// Load inserts a pre-built record keeping its id. Used for demo seeding.
func (s *Store) Load(o Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; !ok {
		s.order = append(s.order, o.ID)
	}
	s.byID[o.ID] = o
}

func (s *Store) Get(id string) (Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return Observation{}, ErrNotFound
	}
	return o, nil
}

// Count reports the number of stored observations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Geospatial returns the matching observations as a GeoJSON
// feature collection in insertion order.
func (s *Store) Geospatial(f Filter) FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, id := range s.order {
		o := s.byID[id]
		if !f.matches(o) {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   o.ID,
			Properties: map[string]any{
				"speciesId":   o.SpeciesID,
				"speciesName": o.SpeciesName,
				"observedAt":  o.ObservedAt.Format(time.RFC3339),
				"datasetId":   o.DatasetID,
				"recordedBy":  o.RecordedBy,
				"validatedBy": o.ValidatedBy,
				"depth":       o.Depth,
				"temperature": o.Temperature,
			},
			Geometry: o.Geometry,
		})
	}
	return fc
}

// RegionSummary is the per-region rollup behind the stats dashboard.
type RegionSummary struct {
	Observations int `json:"observations"`
	Species      int `json:"species"`
}

// regionFor buckets a point into the named Indian Ocean basins. Waters
// south of 8°N count as open ocean regardless of longitude.
func regionFor(p Point) string {
	lon, lat := p.Coordinates[0], p.Coordinates[1]
	switch {
	case lat < 8:
		return "indianOcean"
	case lon >= 78:
		return "bayOfBengal"
	default:
		return "arabianSea"
	}
}

// Regions rolls the stored observations up by basin, counting records
// and distinct species per region.
func (s *Store) Regions() map[string]RegionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	species := make(map[string]map[string]struct{})
	out := make(map[string]RegionSummary)
	for _, o := range s.byID {
		region := regionFor(o.Geometry)
		sum := out[region]
		sum.Observations++
		if species[region] == nil {
			species[region] = make(map[string]struct{})
		}
		species[region][o.SpeciesID] = struct{}{}
		sum.Species = len(species[region])
		out[region] = sum
	}
	return out
}

// DistinctSpecies counts the species with at least one stored sighting.
func (s *Store) DistinctSpecies() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, o := range s.byID {
		seen[o.SpeciesID] = struct{}{}
	}
	return len(seen)
}

// MeanTemperature averages the recorded water temperatures. The second
// return is false when no observation carries a reading.
func (s *Store) MeanTemperature() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	var n int
	for _, o := range s.byID {
		if o.Temperature != 0 {
			sum += o.Temperature
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SeedDemo loads sightings across the Arabian Sea and Bay of Bengal
// spread over the eight days before now.
func (s *Store) SeedDemo(now time.Time) {
	day := 24 * time.Hour
	seed := []Observation{
		{ID: "obs_1", SpeciesID: "sp_2", SpeciesName: "Yellowfin Tuna", ObservedAt: now.Add(-1 * day), Geometry: NewPoint(72.8777, 19.0760), RecordedBy: "Dr. Marine Biologist", ValidatedBy: "Curator A. Patel", DatasetID: "mumbai_fisheries_2024", Depth: 50, Temperature: 28.5},
		{ID: "obs_2", SpeciesID: "sp_3", SpeciesName: "Indian Mackerel", ObservedAt: now.Add(-2 * day), Geometry: NewPoint(75.7139, 11.2588), RecordedBy: "Fisherman Kumar", ValidatedBy: "Dr. R. Nair", DatasetID: "kerala_coastal_survey", Depth: 25, Temperature: 29.2},
		{ID: "obs_3", SpeciesID: "sp_4", SpeciesName: "Oil Sardine", ObservedAt: now.Add(-3 * day), Geometry: NewPoint(80.2707, 13.0827), RecordedBy: "Research Vessel Sagar", ValidatedBy: "Prof. S. Krishnan", DatasetID: "tn_marine_biodiversity", Depth: 15, Temperature: 27.8},
		{ID: "obs_4", SpeciesID: "sp_2", SpeciesName: "Yellowfin Tuna", ObservedAt: now.Add(-4 * day), Geometry: NewPoint(88.3639, 22.5726), RecordedBy: "Community Report", DatasetID: "community_sightings", Depth: 45, Temperature: 26.5},
		{ID: "obs_5", SpeciesID: "sp_5", SpeciesName: "Pomfret", ObservedAt: now.Add(-5 * day), Geometry: NewPoint(74.1240, 15.2993), RecordedBy: "Coastal Patrol", ValidatedBy: "Marine Officer", DatasetID: "goa_fisheries_monitoring", Depth: 30, Temperature: 28.9},
		{ID: "obs_6", SpeciesID: "sp_6", SpeciesName: "Bombay Duck", ObservedAt: now.Add(-6 * day), Geometry: NewPoint(69.6293, 23.0225), RecordedBy: "Fisheries Cooperative", ValidatedBy: "Regional Inspector", DatasetID: "gujarat_catch_data", Depth: 20, Temperature: 25.4},
		{ID: "obs_7", SpeciesID: "sp_7", SpeciesName: "Skipjack Tuna", ObservedAt: now.Add(-7 * day), Geometry: NewPoint(73.5, 17.8), RecordedBy: "Research Vessel Sindhu Sadhana", ValidatedBy: "Chief Marine Scientist", DatasetID: "deep_sea_exploration", Depth: 120, Temperature: 24.1},
		{ID: "obs_8", SpeciesID: "sp_3", SpeciesName: "Indian Mackerel", ObservedAt: now.Add(-8 * day), Geometry: NewPoint(85.0985, 19.8135), RecordedBy: "Odisha Marine Survey", ValidatedBy: "State Fisheries Director", DatasetID: "odisha_coastal_assessment", Depth: 35, Temperature: 27.2},
	}
	for _, o := range seed {
		o.ObservedAt = o.ObservedAt.UTC()
		s.Load(o)
	}
}
