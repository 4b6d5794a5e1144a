package geom

// Extent is an axis-aligned box in 3D index space, described by its first
// corner and per-axis sample counts.
//
// The zero Extent (all dims 0) is a valid sentinel meaning "not specified";
// query layers interpret it as the whole volume via OrWhole.
type Extent struct {
	From V3
	Dims V3
}

// NewExtent creates an extent from its first corner and per-axis dims.
func NewExtent(from, dims V3) Extent {
	return Extent{From: from, Dims: dims}
}

// WholeExtent returns the extent covering an entire volume of the given dims.
func WholeExtent(dims V3) Extent {
	return Extent{Dims: dims}
}

// Last returns the inclusive last corner, From + Dims - 1 per axis.
// Meaningless for empty extents.
func (e Extent) Last() V3 {
	return V3{X: e.From.X + e.Dims.X - 1, Y: e.From.Y + e.Dims.Y - 1, Z: e.From.Z + e.Dims.Z - 1}
}

// IsEmpty reports whether the extent has no samples on some axis.
func (e Extent) IsEmpty() bool {
	return e.Dims.X <= 0 || e.Dims.Y <= 0 || e.Dims.Z <= 0
}

// Valid reports whether all dims are non-negative. Negative dims indicate a
// malformed request and are rejected before any decode work starts.
func (e Extent) Valid() bool {
	return e.Dims.X >= 0 && e.Dims.Y >= 0 && e.Dims.Z >= 0
}

// OrWhole substitutes the whole-volume extent when e is the empty sentinel.
func (e Extent) OrWhole(volDims V3) Extent {
	if e.IsEmpty() {
		return WholeExtent(volDims)
	}

	return e
}

// Contains reports whether o lies fully inside e. An empty o is contained
// in anything.
func (e Extent) Contains(o Extent) bool {
	if o.IsEmpty() {
		return true
	}
	if e.IsEmpty() {
		return false
	}
	last, olast := e.Last(), o.Last()

	return o.From.X >= e.From.X && o.From.Y >= e.From.Y && o.From.Z >= e.From.Z &&
		olast.X <= last.X && olast.Y <= last.Y && olast.Z <= last.Z
}

// Crop intersects e with bounds. The result is empty if they do not overlap.
func Crop(e, bounds Extent) Extent {
	if e.IsEmpty() || bounds.IsEmpty() {
		return Extent{}
	}
	from := e.From.Max(bounds.From)
	last := e.Last().Min(bounds.Last())
	if last.X < from.X || last.Y < from.Y || last.Z < from.Z {
		return Extent{}
	}

	return Extent{From: from, Dims: last.Sub(from).Add(V3{X: 1, Y: 1, Z: 1})}
}

// Union returns the axis-wise bounding box of a and b. If either operand is
// empty the other is returned unchanged.
func Union(a, b Extent) Extent {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	from := a.From.Min(b.From)
	last := a.Last().Max(b.Last())

	return Extent{From: from, Dims: last.Sub(from).Add(V3{X: 1, Y: 1, Z: 1})}
}
