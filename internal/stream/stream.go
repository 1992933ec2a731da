package stream

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Station is a monitoring station used to place events on the live map.
type Station struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Event is one live platform event for the map stream. Kind is
// "observation" for new sightings, "review" for submission decisions
// and "reading" for sensor pings.
type Event struct {
	Kind        string    `json:"kind"`
	Station     Station   `json:"station"`
	SpeciesName string    `json:"speciesName,omitempty"`
	SubjectID   string    `json:"subjectId,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stream fan-outs platform events to all active SSE subscribers.
type Stream struct {
	mu       sync.RWMutex
	subs     map[int]chan Event
	next     int
	rnd      *rand.Rand
	stations []Station
}

// New initialises an empty stream with the demo station network.
func New() *Stream {
	return &Stream{
		subs: make(map[int]chan Event),
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
		stations: []Station{
			{Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
			{Name: "Kochi", Lat: 9.9312, Lon: 76.2673},
			{Name: "Chennai", Lat: 13.0827, Lon: 80.2707},
			{Name: "Visakhapatnam", Lat: 17.6868, Lon: 83.2185},
			{Name: "Goa", Lat: 15.2993, Lon: 74.1240},
			{Name: "Port Blair", Lat: 11.6234, Lon: 92.7265},
			{Name: "Kandla", Lat: 23.0333, Lon: 70.2167},
			{Name: "Paradip", Lat: 20.3165, Lon: 86.6085},
			{Name: "Tuticorin", Lat: 8.7642, Lon: 78.1348},
			{Name: "Lakshadweep", Lat: 10.5667, Lon: 72.6417},
		},
	}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

// StationForID deterministically maps an identifier to a demo station.
func (s *Stream) StationForID(id string) Station {
	if len(s.stations) == 0 {
		return Station{}
	}
	hash := sha1.Sum([]byte(id))
	val := binary.BigEndian.Uint32(hash[:4])
	idx := int(val % uint32(len(s.stations)))
	return s.stations[idx]
}

var demoSpecies = []string{
	"Yellowfin Tuna", "Indian Mackerel", "Oil Sardine",
	"Common Dolphin", "Skipjack Tuna", "Pomfret",
}

// RandomDemoEvent creates an artificial sighting for demo purposes.
func (s *Stream) RandomDemoEvent() Event {
	if len(s.stations) == 0 {
		return Event{Kind: "observation", Timestamp: time.Now().UTC()}
	}
	return Event{
		Kind:        "observation",
		Station:     s.stations[s.rnd.Intn(len(s.stations))],
		SpeciesName: demoSpecies[s.rnd.Intn(len(demoSpecies))],
		Timestamp:   time.Now().UTC(),
	}
}

// StartDemo emits random events at the provided interval until the returned
// stop function is called.
func (s *Stream) StartDemo(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Publish(s.RandomDemoEvent())
			}
		}
	}()
	return cancel
}
