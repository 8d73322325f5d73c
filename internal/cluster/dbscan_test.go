package cluster

import (
	"testing"

	"github.com/MeKo-Tech/trafficlens/internal/geo"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// offsetM returns a point moved north by the given distance in meters.
func offsetM(base types.SamplePoint, northM float64) types.SamplePoint {
	p := base
	p.Lat += northM / geo.EarthRadiusM * 180.0 / 3.141592653589793
	return p
}

func sample(lat, lon, sev float64) types.SamplePoint {
	return types.SamplePoint{Lat: lat, Lon: lon, Severity: sev, Weight: sev}
}

func TestSamplesTwoGroups(t *testing.T) {
	a := sample(12.92, 77.63, 0.8)
	b := sample(12.95, 77.63, 0.9)

	points := []types.SamplePoint{
		a,
		offsetM(a, 50),
		offsetM(a, 100),
		b,
		offsetM(b, 50),
		offsetM(b, 100),
	}

	clusters := Samples(points, 150, 2.0)
	if len(clusters) != 2 {
		t.Fatalf("Samples() returned %d clusters, want 2", len(clusters))
	}
	for i, c := range clusters {
		if len(c) != 3 {
			t.Errorf("cluster %d has %d points, want 3", i, len(c))
		}
	}
}

func TestSamplesNoiseExcluded(t *testing.T) {
	a := sample(12.92, 77.63, 0.8)
	points := []types.SamplePoint{
		a,
		offsetM(a, 50),
		offsetM(a, 100),
		// Isolated point about 2 km north.
		offsetM(a, 2000),
	}

	clusters := Samples(points, 150, 2.0)
	if len(clusters) != 1 {
		t.Fatalf("Samples() returned %d clusters, want 1", len(clusters))
	}
	if len(clusters[0]) != 3 {
		t.Errorf("cluster has %d points, want 3 (noise excluded)", len(clusters[0]))
	}
}

func TestSamplesWeightedCoreTest(t *testing.T) {
	a := sample(12.92, 77.63, 0.4)
	nearby := offsetM(a, 40)

	// Combined weight 0.8 misses the threshold.
	if clusters := Samples([]types.SamplePoint{a, nearby}, 150, 1.0); clusters != nil {
		t.Errorf("Samples() = %d clusters, want none below weight threshold", len(clusters))
	}

	// Heavier samples at the same geometry do cluster.
	heavyA := sample(12.92, 77.63, 0.8)
	heavyB := offsetM(heavyA, 40)
	clusters := Samples([]types.SamplePoint{heavyA, heavyB}, 150, 1.0)
	if len(clusters) != 1 {
		t.Fatalf("Samples() returned %d clusters, want 1", len(clusters))
	}
	if len(clusters[0]) != 2 {
		t.Errorf("cluster has %d points, want 2", len(clusters[0]))
	}
}

func TestSamplesSinglePointOwnWeight(t *testing.T) {
	// The core test includes the point's own weight.
	p := sample(12.92, 77.63, 1.0)
	clusters := Samples([]types.SamplePoint{p}, 150, 1.0)
	if len(clusters) != 1 || len(clusters[0]) != 1 {
		t.Fatalf("Samples() = %v, want a single one-point cluster", clusters)
	}
}

func TestSamplesEmptyInput(t *testing.T) {
	if clusters := Samples(nil, 150, 4.0); clusters != nil {
		t.Errorf("Samples(nil) = %v, want nil", clusters)
	}
}

func TestSamplesBorderPointAdoption(t *testing.T) {
	// Chain: a core point with a border point at its edge. The border
	// point's own neighborhood is too light to be core, but it still
	// belongs to the cluster.
	core := sample(12.92, 77.63, 2.0)
	coreNbr := offsetM(core, -50)
	coreNbr.Severity, coreNbr.Weight = 2.0, 2.0
	border := offsetM(core, 140)
	border.Severity, border.Weight = 0.1, 0.1

	clusters := Samples([]types.SamplePoint{core, coreNbr, border}, 150, 4.0)
	if len(clusters) != 1 {
		t.Fatalf("Samples() returned %d clusters, want 1", len(clusters))
	}
	if len(clusters[0]) != 3 {
		t.Errorf("cluster has %d points, want 3 (border adopted)", len(clusters[0]))
	}
}
