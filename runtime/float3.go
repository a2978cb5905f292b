// Package runtime provides TSL's built-in vector type and the math
// intrinsics available to shader bodies without a user declaration (spec
// SUPPLEMENTED FEATURES, grounded in original_source/src/include's math
// intrinsic surface). Vector arithmetic is backed by chewxy/math32, the
// float32 math library the rest of this retrieval pack's geometry code
// (soypat-glgl/math/ms3) already depends on.
package runtime

import math "github.com/chewxy/math32"

// Float3 is TSL's three-component vector/color value (spec §3.2).
// Fields alias r/g/b to x/y/z: X==R, Y==G, Z==B.
type Float3 struct {
	X, Y, Z float32
}

// Component reads a single field by its name, accepting both the
// positional (x/y/z) and color (r/g/b) spellings.
func (f Float3) Component(name string) float32 {
	switch name {
	case "x", "r":
		return f.X
	case "y", "g":
		return f.Y
	case "z", "b":
		return f.Z
	default:
		return 0
	}
}

// WithComponent returns a copy of f with one field replaced.
func (f Float3) WithComponent(name string, v float32) Float3 {
	switch name {
	case "x", "r":
		f.X = v
	case "y", "g":
		f.Y = v
	case "z", "b":
		f.Z = v
	}
	return f
}

func (f Float3) Add(o Float3) Float3 { return Float3{f.X + o.X, f.Y + o.Y, f.Z + o.Z} }
func (f Float3) Sub(o Float3) Float3 { return Float3{f.X - o.X, f.Y - o.Y, f.Z - o.Z} }
func (f Float3) Mul(o Float3) Float3 { return Float3{f.X * o.X, f.Y * o.Y, f.Z * o.Z} }
func (f Float3) Div(o Float3) Float3 { return Float3{f.X / o.X, f.Y / o.Y, f.Z / o.Z} }

func (f Float3) Scale(s float32) Float3 { return Float3{f.X * s, f.Y * s, f.Z * s} }

func (f Float3) Dot(o Float3) float32 { return f.X*o.X + f.Y*o.Y + f.Z*o.Z }

func (f Float3) Cross(o Float3) Float3 {
	return Float3{
		f.Y*o.Z - f.Z*o.Y,
		f.Z*o.X - f.X*o.Z,
		f.X*o.Y - f.Y*o.X,
	}
}

func (f Float3) Length() float32 { return math.Sqrt(f.Dot(f)) }

func (f Float3) Normalize() Float3 {
	l := f.Length()
	if l == 0 {
		return f
	}
	return f.Scale(1 / l)
}

func (f Float3) Neg() Float3 { return Float3{-f.X, -f.Y, -f.Z} }

func (f Float3) Floor() Float3 { return Float3{math.Floor(f.X), math.Floor(f.Y), math.Floor(f.Z)} }
func (f Float3) Ceil() Float3  { return Float3{math.Ceil(f.X), math.Ceil(f.Y), math.Ceil(f.Z)} }
func (f Float3) Abs() Float3   { return Float3{math.Abs(f.X), math.Abs(f.Y), math.Abs(f.Z)} }

// Reflect reflects incident vector i around normal n (both expected
// normalized), matching the GLSL/HLSL reflect convention.
func Reflect(i, n Float3) Float3 {
	return i.Sub(n.Scale(2 * i.Dot(n)))
}

// Refract refracts incident vector i through normal n with relative
// index of refraction eta, matching the GLSL/HLSL refract convention.
// Returns the zero vector on total internal reflection.
func Refract(i, n Float3, eta float32) Float3 {
	d := i.Dot(n)
	k := 1 - eta*eta*(1-d*d)
	if k < 0 {
		return Float3{}
	}
	return i.Scale(eta).Sub(n.Scale(eta*d + math.Sqrt(k)))
}

func Lerp(a, b, t float32) float32 { return a + (b-a)*t }

func LerpFloat3(a, b Float3, t float32) Float3 {
	return Float3{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t), Lerp(a.Z, b.Z, t)}
}

func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
