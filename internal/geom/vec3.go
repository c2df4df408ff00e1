package geom

import "github.com/chewxy/math32"

// Vec3 is a Cartesian 3-vector in nm (positions) or a unit direction.
type Vec3 struct {
	X, Y, Z float32
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float32) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// MulAdd returns a + dir*s, the point reached after traveling distance s
// along direction dir from a.
func (a Vec3) MulAdd(dir Vec3, s float32) Vec3 {
	return Vec3{a.X + dir.X*s, a.Y + dir.Y*s, a.Z + dir.Z*s}
}

func (a Vec3) Dot(b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Norm() float32 {
	return math32.Sqrt(a.Dot(a))
}

// Normalized returns a unit vector along a. The zero vector maps to ẑ.
func (a Vec3) Normalized() Vec3 {
	n := a.Norm()
	if n == 0 {
		return Vec3{0, 0, 1}
	}
	return a.Scale(1 / n)
}

// Component returns the i-th Cartesian component (0=X,1=Y,2=Z).
func (a Vec3) Component(i int) float32 {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

// WithComponent returns a copy of a with component i replaced by v.
func (a Vec3) WithComponent(i int, v float32) Vec3 {
	switch i {
	case 0:
		a.X = v
	case 1:
		a.Y = v
	default:
		a.Z = v
	}
	return a
}

// IVec3 is a discrete 3-D cell index, or {-1,-1,-1} for "outside".
type IVec3 struct {
	I, J, K int
}

func (v IVec3) Component(i int) int {
	switch i {
	case 0:
		return v.I
	case 1:
		return v.J
	default:
		return v.K
	}
}

func (v IVec3) WithComponent(i, val int) IVec3 {
	switch i {
	case 0:
		v.I = val
	case 1:
		v.J = val
	default:
		v.K = val
	}
	return v
}
