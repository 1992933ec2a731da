package api

import "time"

// Taxonomy carries the coarse classification ranks of a species record.
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

type SpeciesSearchResponse struct {
	Results []Species         `json:"results"`
	Meta    SpeciesSearchMeta `json:"meta"`
}

type SpeciesSearchMeta struct {
	Total int    `json:"total"`
	Query string `json:"q"`
}

type SpeciesResponse struct {
	Species Species `json:"species"`
}

// Geometry is a GeoJSON point, coordinates ordered lon, lat.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type GeospatialResponse struct {
	Observations FeatureCollection `json:"observations"`
	Meta         GeospatialMeta    `json:"meta"`
}

type GeospatialMeta struct {
	Count int `json:"count"`
}

type Observation struct {
	ID          string    `json:"id"`
	SpeciesID   string    `json:"speciesId"`
	SpeciesName string    `json:"speciesName"`
	ObservedAt  time.Time `json:"observedAt"`
	Geometry    Geometry  `json:"geom"`
	RecordedBy  string    `json:"recordedBy"`
	ValidatedBy string    `json:"validatedBy,omitempty"`
	DatasetID   string    `json:"datasetId"`
	Depth       float64   `json:"depth"`
	Temperature float64   `json:"temperature"`
}

type ObservationResponse struct {
	Observation Observation `json:"observation"`
}

type Sensor struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Location Geometry          `json:"location"`
	Meta     map[string]string `json:"meta,omitempty"`
	Unit     string            `json:"unit"`
}

type SensorListResponse struct {
	Sensors []Sensor `json:"sensors"`
	Meta    ListMeta `json:"meta"`
}

type DataPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

type SensorDataResponse struct {
	SensorID string         `json:"sensorId"`
	Agg      string         `json:"agg"`
	Data     []DataPoint    `json:"data"`
	Meta     SensorDataMeta `json:"meta"`
}

type SensorDataMeta struct {
	Unit string `json:"unit"`
}

// StatsResponse aggregates platform-wide counters, per-basin rollups
// and an ecosystem-health snapshot for the dashboard.
type StatsResponse struct {
	Totals      StatsTotals             `json:"totals"`
	Regions     map[string]RegionRollup `json:"regionStats"`
	Ecosystem   EcosystemHealth         `json:"ecosystemHealth"`
	LastUpdated time.Time               `json:"lastUpdated"`
	Meta        StatsMeta               `json:"meta"`
}

// RegionRollup counts observations and distinct species in one basin.
type RegionRollup struct {
	Observations int `json:"observations"`
	Species      int `json:"species"`
}

// EcosystemHealth is the live condition snapshot. Overall is the worst
// of the individual indicator statuses.
type EcosystemHealth struct {
	Overall      string          `json:"overall"`
	Temperature  HealthIndicator `json:"temperature"`
	PH           HealthIndicator `json:"ph"`
	Biodiversity HealthIndicator `json:"biodiversity"`
}

type HealthIndicator struct {
	Status string  `json:"status"`
	Value  float64 `json:"value"`
	Normal float64 `json:"normal,omitempty"`
	Unit   string  `json:"unit"`
}

type StatsMeta struct {
	Source string `json:"source"`
}

type StatsTotals struct {
	Observations       int `json:"observations"`
	Species            int `json:"species"`
	Submissions        int `json:"submissions"`
	PendingSubmissions int `json:"pendingSubmissions"`
	Sensors            int `json:"sensors"`
	Accounts           int `json:"accounts"`
}
