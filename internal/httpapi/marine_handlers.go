package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oceanos.org/internal/audit"
	"oceanos.org/internal/auth"
	"oceanos.org/internal/catalog"
	"oceanos.org/internal/observations"
	"oceanos.org/internal/telemetry"
	"oceanos.org/pkg/api"
)

// --- species ---

type speciesRequest struct {
	ScientificName string           `json:"scientificName"`
	CommonName     string           `json:"commonName"`
	Taxonomy       catalog.Taxonomy `json:"taxonomy"`
	CuratorNotes   string           `json:"curatorNotes"`
}

type speciesUpdateRequest struct {
	ScientificName *string           `json:"scientificName,omitempty"`
	CommonName     *string           `json:"commonName,omitempty"`
	Taxonomy       *catalog.Taxonomy `json:"taxonomy,omitempty"`
	CuratorNotes   *string           `json:"curatorNotes,omitempty"`
}

func (a *API) handleSpeciesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.searchSpecies(w, r)
	case http.MethodPost:
		a.createSpecies(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSpeciesResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/species/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getSpecies(w, r, id)
	case http.MethodPut:
		a.updateSpecies(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) searchSpecies(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAccount(w, r); !ok {
		return
	}
	query := r.URL.Query().Get("name")
	results := a.species.Search(query)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"meta":    api.SpeciesSearchMeta{Total: len(results), Query: strings.ToLower(strings.TrimSpace(query))},
	})
}

func (a *API) getSpecies(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := requireAccount(w, r); !ok {
		return
	}
	sp, err := a.species.Get(id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"species": sp})
}

func (a *API) createSpecies(w http.ResponseWriter, r *http.Request) {
	acc, ok := requireRole(w, r, auth.RoleGovernment)
	if !ok {
		return
	}
	var req speciesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	sp, err := a.species.Create(catalog.Species{
		ScientificName: req.ScientificName,
		CommonName:     req.CommonName,
		Taxonomy:       req.Taxonomy,
		CuratorNotes:   req.CuratorNotes,
		LastReviewedBy: acc.ID,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "species.create", map[string]any{"species_id": sp.ID})
	w.Header().Set("Location", "/api/species/"+sp.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"species": sp})
}

func (a *API) updateSpecies(w http.ResponseWriter, r *http.Request, id string) {
	acc, ok := requireRole(w, r, auth.RoleGovernment)
	if !ok {
		return
	}
	var req speciesUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	reviewer := acc.ID
	sp, err := a.species.Update(id, catalog.UpdateFields{
		ScientificName: req.ScientificName,
		CommonName:     req.CommonName,
		Taxonomy:       req.Taxonomy,
		CuratorNotes:   req.CuratorNotes,
		LastReviewedBy: &reviewer,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "species.update", map[string]any{"species_id": sp.ID})
	writeJSON(w, http.StatusOK, map[string]any{"species": sp})
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "species not found")
	default:
		writeError(w, r, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}

// --- observations ---

type observationRequest struct {
	SpeciesID   string             `json:"speciesId"`
	SpeciesName string             `json:"speciesName"`
	ObservedAt  *time.Time         `json:"observedAt,omitempty"`
	Geometry    observations.Point `json:"geom"`
	RecordedBy  string             `json:"recordedBy,omitempty"`
	DatasetID   string             `json:"datasetId"`
	Depth       float64            `json:"depth"`
	Temperature float64            `json:"temperature"`
}

func (a *API) handleObservationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createObservation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleObservationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/observations/")
	if path == "geospatial" {
		a.geospatial(w, r)
		return
	}
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAccount(w, r); !ok {
		return
	}
	o, err := a.observations.Get(path)
	if err != nil {
		handleObservationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"observation": o})
}

func (a *API) geospatial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAccount(w, r); !ok {
		return
	}

	filter, err := parseGeoFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	fc := a.observations.Geospatial(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"observations": fc,
		"meta":         api.GeospatialMeta{Count: len(fc.Features)},
	})
}

func (a *API) createObservation(w http.ResponseWriter, r *http.Request) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req observationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	recordedBy := strings.TrimSpace(req.RecordedBy)
	if recordedBy == "" {
		recordedBy = acc.Name
	}
	obsIn := observations.Observation{
		SpeciesID:   req.SpeciesID,
		SpeciesName: req.SpeciesName,
		Geometry:    req.Geometry,
		RecordedBy:  recordedBy,
		DatasetID:   req.DatasetID,
		Depth:       req.Depth,
		Temperature: req.Temperature,
	}
	if req.ObservedAt != nil {
		obsIn.ObservedAt = req.ObservedAt.UTC()
	}

	o, err := a.observations.Create(obsIn)
	if err != nil {
		handleObservationError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "observation.create", map[string]any{
		"observation_id": o.ID,
		"species_id":     o.SpeciesID,
	})
	w.Header().Set("Location", "/api/observations/"+o.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"observation": o})
}

func parseGeoFilter(r *http.Request) (observations.Filter, error) {
	q := r.URL.Query()
	filter := observations.Filter{SpeciesID: strings.TrimSpace(q.Get("speciesId"))}

	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return observations.Filter{}, errors.New("start must be RFC 3339")
		}
		filter.Start = t
	}
	if raw := strings.TrimSpace(q.Get("end")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return observations.Filter{}, errors.New("end must be RFC 3339")
		}
		filter.End = t
	}
	if raw := strings.TrimSpace(q.Get("bbox")); raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) != 4 {
			return observations.Filter{}, errors.New("bbox must be minLon,minLat,maxLon,maxLat")
		}
		var box [4]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return observations.Filter{}, errors.New("bbox values must be numbers")
			}
			box[i] = v
		}
		filter.BBox = &box
	}
	return filter, nil
}

func handleObservationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, observations.ErrValidation):
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
	case errors.Is(err, observations.ErrNotFound):
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "observation not found")
	default:
		writeError(w, r, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}

// --- sensors ---

func (a *API) handleSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAccount(w, r); !ok {
		return
	}
	sensors := a.sensors.All()
	writeJSON(w, http.StatusOK, map[string]any{
		"sensors": sensors,
		"meta":    api.ListMeta{Total: len(sensors)},
	})
}

func (a *API) handleSensorResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sensors/")
	id, ok := strings.CutSuffix(path, "/data")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAccount(w, r); !ok {
		return
	}

	q := r.URL.Query()
	agg, err := telemetry.ParseAggregation(q.Get("agg"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, "agg must be raw, 1min or 1hr")
		return
	}
	var start, end time.Time
	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(w, r, http.StatusBadRequest, api.CodeValidation, "start must be RFC 3339")
			return
		}
	}
	if raw := strings.TrimSpace(q.Get("end")); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(w, r, http.StatusBadRequest, api.CodeValidation, "end must be RFC 3339")
			return
		}
	}

	sensor, points, err := a.sensors.Series(id, start, end, agg)
	if err != nil {
		if errors.Is(err, telemetry.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, api.CodeNotFound, "sensor not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensorId": sensor.ID,
		"agg":      string(agg),
		"data":     points,
		"meta":     api.SensorDataMeta{Unit: sensor.Unit},
	})
}

// --- stats ---

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAccount(w, r); !ok {
		return
	}

	total, pending := a.submissions.Counts()
	resp := api.StatsResponse{
		Totals: api.StatsTotals{
			Observations:       a.observations.Count(),
			Species:            a.species.Count(),
			Submissions:        total,
			PendingSubmissions: pending,
			Sensors:            len(a.sensors.All()),
			Accounts:           a.directory.Count(),
		},
		Regions:     regionRollups(a.observations.Regions()),
		Ecosystem:   a.ecosystemHealth(),
		LastUpdated: time.Now().UTC(),
		Meta:        api.StatsMeta{Source: "oceanos-api"},
	}
	writeJSON(w, http.StatusOK, resp)
}

func regionRollups(regions map[string]observations.RegionSummary) map[string]api.RegionRollup {
	out := make(map[string]api.RegionRollup, len(regions))
	for name, sum := range regions {
		out[name] = api.RegionRollup{Observations: sum.Observations, Species: sum.Species}
	}
	return out
}

// ecosystemHealth derives the condition snapshot from the stored data:
// water temperature from the observation records, pH from the live
// buoy reading, biodiversity from the distinct species count.
func (a *API) ecosystemHealth() api.EcosystemHealth {
	health := api.EcosystemHealth{
		Temperature:  api.HealthIndicator{Status: "good", Normal: normalTemperature, Unit: "°C"},
		PH:           api.HealthIndicator{Status: "good", Normal: normalPH, Unit: "pH"},
		Biodiversity: api.HealthIndicator{Status: "good", Unit: "recorded species"},
	}

	if mean, ok := a.observations.MeanTemperature(); ok {
		health.Temperature.Value = mean
		switch {
		case mean >= normalTemperature+3:
			health.Temperature.Status = "alert"
		case mean >= normalTemperature+1.5:
			health.Temperature.Status = "warning"
		}
	}

	for _, s := range a.sensors.All() {
		if s.Unit != "pH" {
			continue
		}
		if _, reading, err := a.sensors.Current(s.ID); err == nil {
			health.PH.Value = reading.Value
			switch {
			case math.Abs(reading.Value-normalPH) >= 1.5:
				health.PH.Status = "alert"
			case math.Abs(reading.Value-normalPH) >= 0.5:
				health.PH.Status = "warning"
			}
		}
		break
	}

	distinct := a.observations.DistinctSpecies()
	health.Biodiversity.Value = float64(distinct)
	if distinct < 5 {
		health.Biodiversity.Status = "moderate"
	}

	health.Overall = worstStatus(
		health.Temperature.Status,
		health.PH.Status,
		health.Biodiversity.Status,
	)
	return health
}

// Baselines for the Arabian Sea monitoring area.
const (
	normalTemperature = 27.2
	normalPH          = 8.1
)

func worstStatus(statuses ...string) string {
	worst := "good"
	for _, s := range statuses {
		switch s {
		case "alert":
			return "alert"
		case "warning", "moderate":
			worst = "moderate"
		}
	}
	return worst
}
