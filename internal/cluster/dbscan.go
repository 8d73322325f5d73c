// Package cluster implements weighted density-based clustering over the
// haversine metric. A point is a core point when the sum of sample weights
// in its eps-neighborhood (itself included) reaches minSamples; noise is
// excluded from the output.
package cluster

import (
	"math"

	"github.com/MeKo-Tech/trafficlens/internal/geo"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

const (
	labelUndefined = -2
	labelNoise     = -1
)

// Samples clusters the sample points. epsM is the neighborhood radius in
// meters, minSamples the weighted density threshold for core points.
func Samples(samples []types.SamplePoint, epsM float64, minSamples float64) [][]types.SamplePoint {
	n := len(samples)
	if n == 0 {
		return nil
	}

	// Precompute radian coordinates; the neighborhood test compares
	// central angles against epsM scaled by the earth radius.
	lats := make([]float64, n)
	lons := make([]float64, n)
	for i, s := range samples {
		lats[i] = s.Lat * math.Pi / 180.0
		lons[i] = s.Lon * math.Pi / 180.0
	}
	eps := epsM / geo.EarthRadiusM

	angle := func(i, j int) float64 {
		dlat := lats[j] - lats[i]
		dlon := lons[j] - lons[i]
		a := math.Sin(dlat/2)*math.Sin(dlat/2) +
			math.Cos(lats[i])*math.Cos(lats[j])*math.Sin(dlon/2)*math.Sin(dlon/2)
		return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	}

	regionQuery := func(i int) []int {
		var nbrs []int
		for j := 0; j < n; j++ {
			if angle(i, j) <= eps {
				nbrs = append(nbrs, j)
			}
		}
		return nbrs
	}

	weightSum := func(idx []int) float64 {
		var sum float64
		for _, j := range idx {
			w := samples[j].Weight
			if w < 1e-6 {
				w = 1e-6
			}
			sum += w
		}
		return sum
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = labelUndefined
	}

	clusterID := -1
	for i := 0; i < n; i++ {
		if labels[i] != labelUndefined {
			continue
		}
		nbrs := regionQuery(i)
		if weightSum(nbrs) < minSamples {
			labels[i] = labelNoise
			continue
		}

		clusterID++
		labels[i] = clusterID

		// Frontier expansion; border points adopt the cluster but do
		// not extend it.
		seeds := append([]int(nil), nbrs...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == labelNoise {
				labels[j] = clusterID
				continue
			}
			if labels[j] != labelUndefined {
				continue
			}
			labels[j] = clusterID
			jn := regionQuery(j)
			if weightSum(jn) >= minSamples {
				seeds = append(seeds, jn...)
			}
		}
	}

	if clusterID < 0 {
		return nil
	}
	clusters := make([][]types.SamplePoint, clusterID+1)
	for i, lbl := range labels {
		if lbl < 0 {
			continue
		}
		clusters[lbl] = append(clusters[lbl], samples[i])
	}

	// Guard against empty buckets (cannot normally happen, but keeps the
	// contract that returned clusters are non-empty).
	out := clusters[:0]
	for _, c := range clusters {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}
