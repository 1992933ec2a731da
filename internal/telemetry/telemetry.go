// Package telemetry registers fixed monitoring sensors and synthesizes
// their time series on demand.
package telemetry

import (
	"errors"
	"math"
	"sync"
	"time"

	"oceanos.org/internal/observations"
)

var (
	ErrNotFound   = errors.New("telemetry: sensor not found")
	ErrInvalidAgg = errors.New("telemetry: invalid aggregation")
)

// Aggregation selects the sampling interval of a series query.
type Aggregation string

const (
	AggRaw    Aggregation = "raw"
	AggMinute Aggregation = "1min"
	AggHour   Aggregation = "1hr"
)

func ParseAggregation(raw string) (Aggregation, error) {
	switch raw {
	case "", string(AggHour):
		return AggHour, nil
	case string(AggRaw):
		return AggRaw, nil
	case string(AggMinute):
		return AggMinute, nil
	default:
		return "", ErrInvalidAgg
	}
}

func (a Aggregation) step() time.Duration {
	if a == AggHour {
		return time.Hour
	}
	return time.Minute
}

type Sensor struct {
	ID       string             `json:"id"`
	Label    string             `json:"label"`
	Location observations.Point `json:"location"`
	Meta     map[string]string  `json:"meta,omitempty"`
	Unit     string             `json:"unit"`
}

type DataPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Registry holds the sensor fleet. Readings are synthesized, not stored,
// so the same query always yields the same series.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Sensor
	order []string
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Sensor), now: time.Now}
}

func (r *Registry) WithClock(fn func() time.Time) *Registry {
	r.now = fn
	return r
}

func (r *Registry) Register(s Sensor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.byID[s.ID] = s
}

func (r *Registry) Get(id string) (Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return Sensor{}, ErrNotFound
	}
	return s, nil
}

func (r *Registry) All() []Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sensor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Series synthesizes readings for one sensor over [start, end] at the
// aggregation's step. A zero start defaults to 24 hours before now,
// a zero end to now. The value is a smooth diurnal curve derived only
// from the sample timestamp.
func (r *Registry) Series(id string, start, end time.Time, agg Aggregation) (Sensor, []DataPoint, error) {
	s, err := r.Get(id)
	if err != nil {
		return Sensor{}, nil, err
	}
	if end.IsZero() {
		end = r.now()
	}
	if start.IsZero() {
		start = end.Add(-24 * time.Hour)
	}

	step := agg.step()
	points := make([]DataPoint, 0, end.Sub(start)/step+1)
	for t := start; !t.After(end); t = t.Add(step) {
		ms := float64(t.UnixMilli())
		points = append(points, DataPoint{
			Time:  t.UTC(),
			Value: 10 + 5*math.Sin(ms/3.6e6),
		})
	}
	return s, points, nil
}

// Current synthesizes the reading a sensor would report right now.
func (r *Registry) Current(id string) (Sensor, DataPoint, error) {
	s, err := r.Get(id)
	if err != nil {
		return Sensor{}, DataPoint{}, err
	}
	t := r.now().UTC()
	ms := float64(t.UnixMilli())
	return s, DataPoint{Time: t, Value: 10 + 5*math.Sin(ms/3.6e6)}, nil
}

// SeedDemo registers the fixed demo fleet.
func (r *Registry) SeedDemo() {
	r.Register(Sensor{
		ID:       "s_1",
		Label:    "Pier Temp Probe",
		Location: observations.NewPoint(72.81, 18.92),
		Meta:     map[string]string{"vendor": "Acme"},
		Unit:     "°C",
	})
	r.Register(Sensor{
		ID:       "s_2",
		Label:    "Buoy 7 pH",
		Location: observations.NewPoint(73.02, 18.75),
		Meta:     map[string]string{"vendor": "OceanX"},
		Unit:     "pH",
	})
}
