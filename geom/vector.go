package geom

// NumAxes is the dimensionality of the index space: X, Y within a face,
// and Z for time.
const NumAxes = 3

// V3 is an integer vector in (X, Y, Z) index space.
type V3 struct {
	X, Y, Z int
}

// NewV3 creates a V3 from its components.
func NewV3(x, y, z int) V3 {
	return V3{X: x, Y: y, Z: z}
}

// Prod returns X*Y*Z as an int64 so large volumes do not overflow on
// 32-bit builds.
func (v V3) Prod() int64 {
	return int64(v.X) * int64(v.Y) * int64(v.Z)
}

// Axis returns the component selected by axis index 0 (X), 1 (Y) or 2 (Z).
// Panics on any other axis.
func (v V3) Axis(d int) int {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	default:
		panic("geom: axis out of range")
	}
}

// WithAxis returns a copy of v with the selected component replaced.
func (v V3) WithAxis(d, val int) V3 {
	switch d {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	case 2:
		v.Z = val
	default:
		panic("geom: axis out of range")
	}

	return v
}

// Min returns the component-wise minimum of v and o.
func (v V3) Min(o V3) V3 {
	return V3{X: min(v.X, o.X), Y: min(v.Y, o.Y), Z: min(v.Z, o.Z)}
}

// Max returns the component-wise maximum of v and o.
func (v V3) Max(o V3) V3 {
	return V3{X: max(v.X, o.X), Y: max(v.Y, o.Y), Z: max(v.Z, o.Z)}
}

// Add returns v + o component-wise.
func (v V3) Add(o V3) V3 {
	return V3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o component-wise.
func (v V3) Sub(o V3) V3 {
	return V3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}
