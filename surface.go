/*
Copyright © 2020 the VectorEdit authors.
This file is part of VectorEdit.

VectorEdit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VectorEdit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VectorEdit.  If not, see <http://www.gnu.org/licenses/>.
*/

package vectoredit

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"gonum.org/v1/gonum/mat"
)

// A Ray is a half-line in world space.
type Ray struct {
	Origin, Dir r3.Vector
}

// Point returns the position at parameter t along the ray.
func (r Ray) Point(t float64) r3.Vector {
	return r.Origin.Add(r.Dir.Mul(t))
}

// A Transform is a rigid world-space transformation. The zero value
// is the identity.
type Transform struct {
	m *mat.Dense // 4x4 homogeneous matrix
}

// Apply transforms the world position v.
func (t Transform) Apply(v r3.Vector) r3.Vector {
	if t.m == nil {
		return v
	}
	in := mat.NewVecDense(4, []float64{v.X, v.Y, v.Z, 1})
	var out mat.VecDense
	out.MulVec(t.m, in)
	w := out.AtVec(3)
	return r3.Vector{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}

func translationTransform(d r3.Vector) Transform {
	m := mat.NewDense(4, 4, []float64{
		1, 0, 0, d.X,
		0, 1, 0, d.Y,
		0, 0, 1, d.Z,
		0, 0, 0, 1,
	})
	return Transform{m: m}
}

// rotationTransform builds the rotation about the unit axis by angle,
// following the right-hand rule.
func rotationTransform(axis r3.Vector, angle s1.Angle) Transform {
	s, c := math.Sincos(angle.Radians())
	k := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	m := mat.NewDense(4, 4, []float64{
		c + x*x*k, x*y*k - z*s, x*z*k + y*s, 0,
		y*x*k + z*s, c + y*y*k, y*z*k - x*s, 0,
		z*x*k - y*s, z*y*k + x*s, c + z*z*k, 0,
		0, 0, 0, 1,
	})
	return Transform{m: m}
}

// A ProjectionSurface is the 3D surface the map is drawn onto. It
// converts between internal map coordinates and world positions, and
// supplies the rigid transforms used for dragging geometry along the
// surface.
type ProjectionSurface interface {
	// CalculatePosition converts an internal map position to a world
	// position on the surface.
	CalculatePosition(mapPos geom.Point) r3.Vector

	// CalculateMapPos converts a world position to an internal map
	// position, projecting onto the surface if necessary.
	CalculateMapPos(worldPos r3.Vector) geom.Point

	// CalculateTranslation returns the rigid transform that carries
	// the world position from towards to, scaled by the fraction t.
	// t=0.5 yields the surface midpoint transform and t=1 the full
	// translation.
	CalculateTranslation(from, to r3.Vector, t float64) Transform

	// RayIntersect returns the nearest intersection of ray with the
	// surface, and whether one exists.
	RayIntersect(ray Ray) (r3.Vector, bool)

	// Normal returns the surface normal at the world position.
	Normal(worldPos r3.Vector) r3.Vector
}

// PlanarSurface is a flat map surface on the z=0 plane. Internal map
// coordinates are used directly as world x and y.
type PlanarSurface struct{}

// NewPlanarSurface creates a flat projection surface.
func NewPlanarSurface() *PlanarSurface { return &PlanarSurface{} }

func (s *PlanarSurface) CalculatePosition(mapPos geom.Point) r3.Vector {
	return r3.Vector{X: mapPos.X, Y: mapPos.Y, Z: 0}
}

func (s *PlanarSurface) CalculateMapPos(worldPos r3.Vector) geom.Point {
	return geom.Point{X: worldPos.X, Y: worldPos.Y}
}

func (s *PlanarSurface) CalculateTranslation(from, to r3.Vector, t float64) Transform {
	return translationTransform(to.Sub(from).Mul(t))
}

func (s *PlanarSurface) RayIntersect(ray Ray) (r3.Vector, bool) {
	if ray.Dir.Z == 0 {
		if ray.Origin.Z == 0 {
			return ray.Origin, true
		}
		return r3.Vector{}, false
	}
	t := -ray.Origin.Z / ray.Dir.Z
	if t < 0 {
		return r3.Vector{}, false
	}
	return ray.Point(t), true
}

func (s *PlanarSurface) Normal(worldPos r3.Vector) r3.Vector {
	return r3.Vector{X: 0, Y: 0, Z: 1}
}

// SphericalSurface is a globe surface: the unit sphere, with internal
// map x as longitude and internal map y as Mercator latitude.
// Translations along the surface are rotations, so dragged geometry
// follows great circles instead of Mercator straight lines.
type SphericalSurface struct{}

// NewSphericalSurface creates a globe projection surface.
func NewSphericalSurface() *SphericalSurface { return &SphericalSurface{} }

func (s *SphericalSurface) CalculatePosition(mapPos geom.Point) r3.Vector {
	lat := 2*math.Atan(math.Exp(mapPos.Y)) - math.Pi/2
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(mapPos.X)
	return r3.Vector{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
}

func (s *SphericalSurface) CalculateMapPos(worldPos r3.Vector) geom.Point {
	v := worldPos.Normalize()
	lat := math.Asin(math.Max(-1, math.Min(1, v.Z)))
	lat = math.Max(-maxMercatorLat*math.Pi/180, math.Min(maxMercatorLat*math.Pi/180, lat))
	return geom.Point{
		X: math.Atan2(v.Y, v.X),
		Y: math.Log(math.Tan(math.Pi/4 + lat/2)),
	}
}

func (s *SphericalSurface) CalculateTranslation(from, to r3.Vector, t float64) Transform {
	u := from.Normalize()
	w := to.Normalize()
	cross := u.Cross(w)
	dot := math.Max(-1, math.Min(1, u.Dot(w)))
	angle := math.Atan2(cross.Norm(), dot)
	axis := cross
	if cross.Norm() < 1e-14 {
		if dot > 0 {
			return Transform{}
		}
		// Antipodal positions: rotate about an arbitrary
		// perpendicular axis.
		axis = u.Ortho()
	}
	return rotationTransform(axis.Normalize(), s1.Angle(angle*t))
}

func (s *SphericalSurface) RayIntersect(ray Ray) (r3.Vector, bool) {
	a := ray.Dir.Norm2()
	if a == 0 {
		return r3.Vector{}, false
	}
	b := 2 * ray.Origin.Dot(ray.Dir)
	c := ray.Origin.Norm2() - 1
	disc := b*b - 4*a*c
	if disc < 0 {
		return r3.Vector{}, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
	}
	if t < 0 {
		return r3.Vector{}, false
	}
	return ray.Point(t), true
}

func (s *SphericalSurface) Normal(worldPos r3.Vector) r3.Vector {
	return worldPos.Normalize()
}
