package geo

import (
	"math"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// faceTolerance absorbs floating point noise on the boundary planes.
const faceTolerance = 1e-6

// Figure is a closed solid in (lon, lat, alt) space described by eight vertices
// and quadrilateral faces over them. Vertices 0-3 form the lower block, the end of
// the approach, and vertices 4-7 the upper block where it begins.
type Figure struct {
	Vertices [8]core.Position3D
	Faces    [][4]int
}

// Approach is the corridor watched by the tracker: two vertical slabs over the
// coast south of Barcelona joined into one solid.
var Approach = Figure{
	Vertices: [8]core.Position3D{
		{Lon: 2.1853, Lat: 41.3377, Alt: 900},
		{Lon: 2.1898, Lat: 41.3147, Alt: 900},
		{Lon: 2.1853, Lat: 41.3377, Alt: 1500},
		{Lon: 2.1898, Lat: 41.3147, Alt: 1500},

		{Lon: 2.2726, Lat: 41.3698, Alt: 2000},
		{Lon: 2.2939, Lat: 41.3530, Alt: 2000},
		{Lon: 2.2726, Lat: 41.3698, Alt: 3000},
		{Lon: 2.2939, Lat: 41.3530, Alt: 3000},
	},
	Faces: [][4]int{
		{0, 1, 3, 2},
		{0, 2, 6, 4},
		{1, 3, 7, 5},
		{4, 5, 7, 6},
		{2, 3, 7, 6},
		{0, 1, 5, 4},
	},
}

type vec3 struct{ x, y, z float64 }

func vec(p core.Position3D) vec3 { return vec3{p.Lon, p.Lat, p.Alt} }

func (a vec3) sub(b vec3) vec3      { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) dot(b vec3) float64   { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) scale(k float64) vec3 { return vec3{a.x * k, a.y * k, a.z * k} }
func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a.y*b.z - a.z*b.y,
		a.z*b.x - a.x*b.z,
		a.x*b.y - a.y*b.x,
	}
}

func mean(ps ...core.Position3D) vec3 {
	var sum vec3
	for _, p := range ps {
		sum = vec3{sum.x + p.Lon, sum.y + p.Lat, sum.z + p.Alt}
	}
	return sum.scale(1 / float64(len(ps)))
}

// Contains reports whether p lies inside the figure or on its boundary. Each face
// plane is oriented away from the figure's centroid; a point beyond any of them is
// outside.
func (f Figure) Contains(p core.Position3D) bool {
	centroid := mean(f.Vertices[:]...)
	pt := vec(p)

	for _, face := range f.Faces {
		v0 := vec(f.Vertices[face[0]])
		v1 := vec(f.Vertices[face[1]])
		v2 := vec(f.Vertices[face[2]])

		n := v1.sub(v0).cross(v2.sub(v0))
		d := -n.dot(v0)

		if n.dot(centroid)+d > 0 {
			n, d = n.scale(-1), -d
		}
		if n.dot(pt)+d > faceTolerance {
			return false
		}
	}
	return true
}

// Progress projects p onto the axis running from the centre of the upper block
// (0) to the centre of the lower block (100) and returns the raw percentage,
// clamped to [0, 100].
func (f Figure) Progress(p core.Position3D) float64 {
	start := mean(f.Vertices[4:8]...)
	end := mean(f.Vertices[0:4]...)

	ab := end.sub(start)
	ap := vec(p).sub(start)

	t := ap.dot(ab) / ab.dot(ab)
	t = max(0, min(1, t))
	return t * 100
}

// RelativeDistance is Progress mapped through the display curve and rounded,
// the value reported to viewers.
func (f Figure) RelativeDistance(p core.Position3D) int {
	return DisplayPercentage(f.Progress(p))
}

// Control points of the display curve. The start of the corridor is far from
// the viewer's window, so its first third is compressed.
var (
	displayIn  = []float64{-1, 0, 32, 48, 100}
	displayOut = []float64{-1, 0, 8, 30, 100}
)

// DisplayPercentage maps a raw progress percentage to the on-screen position by
// piecewise linear interpolation, rounding half to even. Inputs outside the
// control range take the nearest end value.
func DisplayPercentage(pct float64) int {
	return int(math.RoundToEven(interp(pct, displayIn, displayOut)))
}

func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			frac := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + frac*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}
