package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestParseAggregation(t *testing.T) {
	if agg, err := ParseAggregation(""); err != nil || agg != AggHour {
		t.Fatalf("empty should default to 1hr, got %v %v", agg, err)
	}
	if _, err := ParseAggregation("5min"); !errors.Is(err, ErrInvalidAgg) {
		t.Fatalf("expected ErrInvalidAgg, got %v", err)
	}
}

func TestSeriesIsDeterministic(t *testing.T) {
	reg := NewRegistry()
	reg.SeedDemo()

	start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	sensor, a, err := reg.Series("s_1", start, end, AggHour)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if sensor.Label != "Pier Temp Probe" {
		t.Fatalf("unexpected sensor: %+v", sensor)
	}
	if len(a) != 7 {
		t.Fatalf("hourly over 6h should yield 7 points, got %d", len(a))
	}
	_, b, err := reg.Series("s_1", start, end, AggHour)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("series not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
	for _, p := range a {
		if p.Value < 5 || p.Value > 15 {
			t.Fatalf("value outside 10±5 band: %v", p)
		}
	}
}

func TestSeriesDefaultsToLastDay(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry().WithClock(func() time.Time { return now })
	reg.SeedDemo()

	_, points, err := reg.Series("s_2", time.Time{}, time.Time{}, AggHour)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(points) != 25 {
		t.Fatalf("24h hourly window should yield 25 points, got %d", len(points))
	}
	if !points[0].Time.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected window start: %v", points[0].Time)
	}

	if _, _, err := reg.Series("s_404", time.Time{}, time.Time{}, AggHour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
