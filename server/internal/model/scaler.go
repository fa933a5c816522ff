package model

import "github.com/marocz/wearguard/server/internal/features"

// StandardScaler centres each column on its training mean and divides by
// its standard deviation.
type StandardScaler struct {
	Mean  features.Vector
	Scale features.Vector
}

// Transform returns (x - mean) / scale. A zero scale leaves the centred value
// undivided, matching the training library's handling of constant columns.
func (s StandardScaler) Transform(x features.Vector) (features.Vector, error) {
	var out features.Vector
	for i := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x[i] - s.Mean[i]) / scale
	}
	return out, nil
}

// MinMaxScaler maps each column linearly, usually onto [0, 1].
type MinMaxScaler struct {
	Min   features.Vector
	Scale features.Vector
}

// Transform returns x*scale + min.
func (s MinMaxScaler) Transform(x features.Vector) (features.Vector, error) {
	var out features.Vector
	for i := range x {
		out[i] = x[i]*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

// IdentityScaler returns its input unchanged.
type IdentityScaler struct{}

// Transform returns x.
func (IdentityScaler) Transform(x features.Vector) (features.Vector, error) {
	return x, nil
}
