package geo

import "testing"

import "github.com/stretchr/testify/assert"

func TestDistanceKMIdentical(t *testing.T) {
	assert.InDelta(t, 0.0, DistanceKM(6.5244, 3.3792, 6.5244, 3.3792), 1e-9)
}

func TestDistanceKMSymmetric(t *testing.T) {
	a := DistanceKM(6.5244, 3.3792, -1.2921, 36.8219)
	b := DistanceKM(-1.2921, 36.8219, 6.5244, 3.3792)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKMLagosNairobi(t *testing.T) {
	d := DistanceKM(6.5244, 3.3792, -1.2921, 36.8219)
	assert.GreaterOrEqual(t, d, 3500.0)
	assert.LessOrEqual(t, d, 4100.0)
}

func TestDistanceKMCapeTownJohannesburg(t *testing.T) {
	d := DistanceKM(-26.2041, 28.0473, -33.9249, 18.4241)
	assert.GreaterOrEqual(t, d, 1100.0)
	assert.LessOrEqual(t, d, 1400.0)
}
