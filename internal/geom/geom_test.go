package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecClose(a, b r3.Vec, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

func TestEulerRotateKnownAngles(t *testing.T) {
	tests := []struct {
		name     string
		rotation Euler
		point    r3.Vec
		want     r3.Vec
	}{
		{
			name:     "identity",
			rotation: Euler{},
			point:    r3.Vec{X: 1, Y: 2, Z: 3},
			want:     r3.Vec{X: 1, Y: 2, Z: 3},
		},
		{
			name:     "quarter turn about z",
			rotation: Euler{Z: math.Pi / 2},
			point:    r3.Vec{X: 1},
			want:     r3.Vec{Y: 1},
		},
		{
			name:     "quarter turn about x",
			rotation: Euler{X: math.Pi / 2},
			point:    r3.Vec{Y: 1},
			want:     r3.Vec{Z: 1},
		},
		{
			name:     "quarter turn about y",
			rotation: Euler{Y: math.Pi / 2},
			point:    r3.Vec{Z: 1},
			want:     r3.Vec{X: 1},
		},
		{
			name:     "x then z order",
			rotation: Euler{X: math.Pi / 2, Z: math.Pi / 2},
			point:    r3.Vec{Y: 1},
			want:     r3.Vec{Z: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rotation.Rotate(tt.point)
			if !vecClose(got, tt.want, 1e-12) {
				t.Fatalf("rotate %v by %v: got %v want %v", tt.point, tt.rotation, got, tt.want)
			}
		})
	}
}

func TestEulerRotatePreservesNorm(t *testing.T) {
	rotation := Euler{X: 0.3, Y: -1.1, Z: 2.4}
	point := r3.Vec{X: 1.5, Y: -2.5, Z: 0.75}
	got := rotation.Rotate(point)
	if want, norm := r3.Norm(point), r3.Norm(got); math.Abs(norm-want) > 1e-12 {
		t.Fatalf("rotation changed the norm: got %v want %v", norm, want)
	}
}

func TestEulerArrayRoundTrip(t *testing.T) {
	want := Euler{X: 0.1, Y: -0.2, Z: 0.3}
	if got := EulerFromArray(want.Array()); got != want {
		t.Fatalf("array round trip: got %v want %v", got, want)
	}
}

func TestTransformApply(t *testing.T) {
	transform := Transform{
		Location: r3.Vec{X: 10, Y: 20, Z: 30},
		Rotation: Euler{Z: math.Pi / 2},
	}
	got := transform.Apply(r3.Vec{X: 1})
	want := r3.Vec{X: 10, Y: 21, Z: 30}
	if !vecClose(got, want, 1e-12) {
		t.Fatalf("apply: got %v want %v", got, want)
	}
}

func TestLineSegmentAt(t *testing.T) {
	line := LineSegment{Start: r3.Vec{X: 0, Y: 0, Z: 2}, End: r3.Vec{X: 10, Y: -10, Z: 2}}
	tests := []struct {
		t    float64
		want r3.Vec
	}{
		{t: 0, want: line.Start},
		{t: 1, want: line.End},
		{t: 0.5, want: r3.Vec{X: 5, Y: -5, Z: 2}},
	}
	for _, tt := range tests {
		if got := line.At(tt.t); !vecClose(got, tt.want, 1e-12) {
			t.Fatalf("at %v: got %v want %v", tt.t, got, tt.want)
		}
	}
}

func TestHorizontalDistanceIgnoresHeight(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 100}
	b := r3.Vec{X: 3, Y: 4, Z: -50}
	if got := HorizontalDistance(a, b); math.Abs(got-5) > 1e-12 {
		t.Fatalf("horizontal distance: got %v want 5", got)
	}
}
