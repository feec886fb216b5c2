package normalize

import (
	"fmt"
	"math"

	"github.com/carbocation/sxfst/spectra"
)

// Truncate is the kernel half-width in standard deviations.
const Truncate = 4.0

// Smooth returns a copy of t with a Gaussian filter applied along the
// wavelength axis of each row. Edges are handled by reflecting the spectrum
// about its boundary (d c b a | a b c d | d c b a) and the kernel is
// truncated at four sigma. Labels and shape are unchanged.
func Smooth(t *spectra.Table, sigma float64) (*spectra.Table, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("smoothing sigma must be non-negative, got %v", sigma)
	}

	out := t.Clone()
	if sigma == 0 {
		return out, nil
	}

	kernel := GaussianKernel(sigma)
	for i, row := range t.Values {
		out.Values[i] = Convolve(row, kernel)
	}

	return out, nil
}

// GaussianKernel returns normalized Gaussian weights of radius
// int(Truncate*sigma + 0.5) on either side of the center.
func GaussianKernel(sigma float64) []float64 {
	radius := int(Truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)

	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// Convolve applies a symmetric, odd-length kernel to x with reflected edges.
func Convolve(x, kernel []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	radius := len(kernel) / 2
	for i := 0; i < n; i++ {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * x[reflect(i+k, n)]
		}
		out[i] = acc
	}

	return out
}

// reflect maps an out-of-range index back into [0, n) by mirroring about the
// edges, including the edge sample itself.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}

	return i
}
