package config

import (
	"encoding/json"
	"fmt"
)

// ClearanceOption is the union-typed camera clearance: a two-element array is
// a uniform height band above the floor, a bare number is a hard lower
// limit combined with the polar angle range.
type ClearanceOption struct {
	Range  *[2]float64
	Scalar *float64
}

// MarshalJSON encodes whichever variant is set.
func (o ClearanceOption) MarshalJSON() ([]byte, error) {
	if o.Range != nil {
		return json.Marshal(*o.Range)
	}
	if o.Scalar != nil {
		return json.Marshal(*o.Scalar)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts either a number or a two-element array.
func (o *ClearanceOption) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = ClearanceOption{}
		return nil
	}
	var scalar float64
	if err := json.Unmarshal(b, &scalar); err == nil {
		o.Scalar = &scalar
		o.Range = nil
		return nil
	}
	var span [2]float64
	if err := json.Unmarshal(b, &span); err == nil {
		o.Range = &span
		o.Scalar = nil
		return nil
	}
	return fmt.Errorf("clearance: expected number or [low, high], got %s", string(b))
}

// NoiseOption is the union-typed rotation noise: a bare number applies the
// same sigma to every axis, an array sets them per axis.
type NoiseOption struct {
	Sigma [3]float64
	// scalar remembers that the value was given as one number so the
	// round-trip through JSON is exact.
	scalar bool
}

// MarshalJSON encodes the noise in the shape it was given.
func (o NoiseOption) MarshalJSON() ([]byte, error) {
	if o.scalar {
		return json.Marshal(o.Sigma[0])
	}
	return json.Marshal(o.Sigma)
}

// UnmarshalJSON accepts either a number or a three-element array.
func (o *NoiseOption) UnmarshalJSON(b []byte) error {
	var scalar float64
	if err := json.Unmarshal(b, &scalar); err == nil {
		*o = NoiseOption{Sigma: [3]float64{scalar, scalar, scalar}, scalar: true}
		return nil
	}
	var sigma [3]float64
	if err := json.Unmarshal(b, &sigma); err == nil {
		*o = NoiseOption{Sigma: sigma}
		return nil
	}
	return fmt.Errorf("noise: expected number or [x, y, z], got %s", string(b))
}
