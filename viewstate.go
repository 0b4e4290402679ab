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

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// A ScreenPos is a pixel position with the origin at the top left
// corner of the view.
type ScreenPos struct {
	X, Y float64
}

// A ViewState is an immutable snapshot of the camera: a perspective
// projection looking at a projection surface. It converts between
// screen, world and internal map coordinates. Conversions that fail
// produce NaN results rather than errors; callers treat NaN as "abort
// this event".
type ViewState struct {
	surface   ProjectionSurface
	cameraPos r3.Vector
	focusPos  r3.Vector
	width     int
	height    int
	fovY      float64 // degrees

	mvp    *mat.Dense
	invMVP *mat.Dense
	valid  bool
}

// NewViewState creates a camera snapshot. cameraPos and focusPos are
// world positions, upVec orients the view, width and height are the
// viewport size in pixels and fovY is the vertical field of view in
// degrees.
func NewViewState(surface ProjectionSurface, cameraPos, focusPos, upVec r3.Vector, width, height int, fovY float64) *ViewState {
	v := &ViewState{
		surface:   surface,
		cameraPos: cameraPos,
		focusPos:  focusPos,
		width:     width,
		height:    height,
		fovY:      fovY,
	}

	dist := cameraPos.Sub(focusPos).Norm()
	if surface == nil || width <= 0 || height <= 0 || fovY <= 0 || fovY >= 180 || dist == 0 {
		return v
	}

	modelview := lookAtMatrix(cameraPos, focusPos, upVec)
	projection := perspectiveMatrix(fovY, float64(width)/float64(height), dist/1000, dist*1000)

	mvp := new(mat.Dense)
	mvp.Mul(projection, modelview)
	if matrixHasNaN(mvp) {
		return v
	}
	invMVP := new(mat.Dense)
	if err := invMVP.Inverse(mvp); err != nil {
		return v
	}
	v.mvp = mvp
	v.invMVP = invMVP
	v.valid = true
	return v
}

// Surface returns the projection surface the camera looks at.
func (v *ViewState) Surface() ProjectionSurface { return v.surface }

// CameraPos returns the camera's world position.
func (v *ViewState) CameraPos() r3.Vector { return v.cameraPos }

// FocusPos returns the world position the camera looks at.
func (v *ViewState) FocusPos() r3.Vector { return v.focusPos }

// Width returns the viewport width in pixels.
func (v *ViewState) Width() int { return v.width }

// Height returns the viewport height in pixels.
func (v *ViewState) Height() int { return v.height }

// FOVY returns the vertical field of view in degrees.
func (v *ViewState) FOVY() float64 { return v.fovY }

// CameraRay returns the world-space ray from the camera through the
// screen position.
func (v *ViewState) CameraRay(p ScreenPos) (Ray, bool) {
	if !v.valid {
		return Ray{}, false
	}
	near, ok := v.unproject(p, -1)
	if !ok {
		return Ray{}, false
	}
	far, ok := v.unproject(p, 1)
	if !ok {
		return Ray{}, false
	}
	dir := far.Sub(near)
	if dir.Norm() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: dir.Normalize()}, true
}

// ScreenToWorld converts a screen position to the world position where
// the camera ray meets the projection surface. The result is all-NaN
// if the view is degenerate or the ray misses the surface.
func (v *ViewState) ScreenToWorld(p ScreenPos) r3.Vector {
	ray, ok := v.CameraRay(p)
	if !ok {
		return nanVector()
	}
	pos, ok := v.surface.RayIntersect(ray)
	if !ok {
		return nanVector()
	}
	return pos
}

// WorldToScreen projects a world position to screen coordinates. The
// result is NaN if the position is behind the camera or the view is
// degenerate.
func (v *ViewState) WorldToScreen(pos r3.Vector) ScreenPos {
	if !v.valid {
		return ScreenPos{X: math.NaN(), Y: math.NaN()}
	}
	in := mat.NewVecDense(4, []float64{pos.X, pos.Y, pos.Z, 1})
	var out mat.VecDense
	out.MulVec(v.mvp, in)
	w := out.AtVec(3)
	if w <= 0 {
		return ScreenPos{X: math.NaN(), Y: math.NaN()}
	}
	ndcX := out.AtVec(0) / w
	ndcY := out.AtVec(1) / w
	return ScreenPos{
		X: (ndcX + 1) / 2 * float64(v.width),
		Y: (1 - ndcY) / 2 * float64(v.height),
	}
}

// UnitsPerPixel returns the world-space length covered by one screen
// pixel at the given world position. Pixel-sized style parameters are
// scaled by this to obtain world-space hit radii.
func (v *ViewState) UnitsPerPixel(pos r3.Vector) float64 {
	if !v.valid {
		return math.NaN()
	}
	dist := pos.Sub(v.cameraPos).Norm()
	return 2 * dist * math.Tan(v.fovY*math.Pi/360) / float64(v.height)
}

func (v *ViewState) unproject(p ScreenPos, ndcZ float64) (r3.Vector, bool) {
	ndcX := 2*p.X/float64(v.width) - 1
	ndcY := 1 - 2*p.Y/float64(v.height)
	in := mat.NewVecDense(4, []float64{ndcX, ndcY, ndcZ, 1})
	var out mat.VecDense
	out.MulVec(v.invMVP, in)
	w := out.AtVec(3)
	if w == 0 || math.IsNaN(w) {
		return r3.Vector{}, false
	}
	return r3.Vector{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}, true
}

func lookAtMatrix(eye, center, up r3.Vector) *mat.Dense {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return mat.NewDense(4, 4, []float64{
		s.X, s.Y, s.Z, -s.Dot(eye),
		u.X, u.Y, u.Z, -u.Dot(eye),
		-f.X, -f.Y, -f.Z, f.Dot(eye),
		0, 0, 0, 1,
	})
}

func perspectiveMatrix(fovYDeg, aspect, near, far float64) *mat.Dense {
	f := 1 / math.Tan(fovYDeg*math.Pi/360)
	return mat.NewDense(4, 4, []float64{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), 2 * far * near / (near - far),
		0, 0, -1, 0,
	})
}

func matrixHasNaN(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(m.At(i, j)) {
				return true
			}
		}
	}
	return false
}

func nanVector() r3.Vector {
	return r3.Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// vectorIsNaN reports whether any component of v is NaN.
func vectorIsNaN(v r3.Vector) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}
