package analysis

import (
	"math"
	"sort"
)

// Summary holds the moments of one species' speed distribution.
type Summary struct {
	N           int
	Mass        float64
	Mean        float64
	RMS         float64
	Max         float64
	Temperature float64 // kT = m<v^2>/2 in two dimensions
}

func Summarize(speeds []float64, mass float64) Summary {
	s := Summary{N: len(speeds), Mass: mass}
	if len(speeds) == 0 {
		return s
	}
	sum, sumSq := 0.0, 0.0
	for _, v := range speeds {
		sum += v
		sumSq += v * v
		s.Max = math.Max(s.Max, v)
	}
	n := float64(len(speeds))
	s.Mean = sum / n
	s.RMS = math.Sqrt(sumSq / n)
	s.Temperature = 0.5 * mass * sumSq / n
	return s
}

// Sigma is the Rayleigh scale parameter matching the summary's temperature.
func (s Summary) Sigma() float64 {
	if s.Mass == 0 {
		return 0
	}
	return math.Sqrt(s.Temperature / s.Mass)
}

func RayleighCDF(v, sigma float64) float64 {
	if v <= 0 || sigma <= 0 {
		return 0
	}
	return 1 - math.Exp(-v*v/(2*sigma*sigma))
}

// KSDistance is the Kolmogorov-Smirnov statistic between the empirical
// distribution of speeds and a Rayleigh distribution with scale sigma.
func KSDistance(speeds []float64, sigma float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	sorted := append([]float64(nil), speeds...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	d := 0.0
	for i, v := range sorted {
		f := RayleighCDF(v, sigma)
		d = math.Max(d, math.Max(float64(i+1)/n-f, f-float64(i)/n))
	}
	return d
}

// MeanStd returns the sample mean and standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / (n - 1))
}
