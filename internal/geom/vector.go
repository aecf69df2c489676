package geom

import "math"

// Vec is a 2-D vector in world coordinates.
type Vec struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(s float64) Vec { return Vec{s * v.X, s * v.Y} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec) Len() float64 { return math.Sqrt(v.LenSq()) }

// Mod wraps each component into [0, dim) for toroidal topologies.
// The result is non-negative even for negative inputs.
func (v Vec) Mod(dims Vec) Vec {
	return Vec{positiveMod(v.X, dims.X), positiveMod(v.Y, dims.Y)}
}

// In reports whether both components lie in [0, dim).
func (v Vec) In(dims Vec) bool {
	return 0 <= v.X && v.X < dims.X && 0 <= v.Y && v.Y < dims.Y
}

// FromAngle converts an orientation in radians to a unit direction vector.
func FromAngle(theta float64) Vec {
	return Vec{math.Cos(theta), math.Sin(theta)}
}

// WrapAngle reduces an angle into [0, 2π).
func WrapAngle(theta float64) float64 {
	return positiveMod(theta, 2*math.Pi)
}

// Clamp bounds x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func positiveMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
