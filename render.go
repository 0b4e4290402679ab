/*
Copyright © 2021 the VectorEdit authors.
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
	"sort"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/golang/geo/r3"
)

// defaultHitTolerancePx is the screen-space pick tolerance applied to
// point and line elements.
const defaultHitTolerancePx = 8.0

// A MapRenderer ties a layer to the view it is drawn in. ViewState
// may be called with the layer lock held, so implementations must
// not call back into the layer.
type MapRenderer interface {
	// ViewState returns the current camera state, or nil before the
	// first view update.
	ViewState() *ViewState

	// RequestRedraw schedules a redraw of the map.
	RequestRedraw()
}

// MapView is a minimal MapRenderer that stores the current view state
// and counts redraw requests. It stands in for a rendering engine in
// tests and offline tools.
type MapView struct {
	mu      sync.Mutex
	view    *ViewState
	redraws int
}

func NewMapView() *MapView {
	return new(MapView)
}

// SetViewState installs the camera state returned by subsequent
// ViewState calls.
func (v *MapView) SetViewState(view *ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.view = view
}

func (v *MapView) ViewState() *ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}

func (v *MapView) RequestRedraw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.redraws++
}

// Redraws returns the number of redraw requests so far.
func (v *MapView) Redraws() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.redraws
}

// A shapeEntry indexes one element in the shape renderer's r-tree.
// The embedded geometry is the element's bounding rectangle in
// internal map coordinates, which is the extent the spatial index
// sees; the entry itself keeps its identity so search results map
// back to elements.
type shapeEntry struct {
	geom.Geom
	element *Element
	order   int
	indexed bool
}

// boundsRect is the extent of b as an indexable geometry.
func boundsRect(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
	}}
}

// A ShapeRenderer holds the drawable set of elements and answers ray
// picking queries against it. Elements are staged with AddElement and
// become live, in draw order, at the next RefreshElements call.
type ShapeRenderer struct {
	mu          sync.Mutex
	proj        Projection
	pending     []*Element
	entries     []*shapeEntry
	tree        *rtree.Rtree
	tolerancePx float64
}

// NewShapeRenderer creates a renderer for elements whose coordinates
// are in the given projection. A nil projection means EPSG:3857.
func NewShapeRenderer(proj Projection) *ShapeRenderer {
	if proj == nil {
		proj = NewEPSG3857()
	}
	return &ShapeRenderer{
		proj:        proj,
		tree:        rtree.NewTree(25, 50),
		tolerancePx: defaultHitTolerancePx,
	}
}

// SetHitTolerance sets the pick tolerance in screen pixels.
func (r *ShapeRenderer) SetHitTolerance(px float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tolerancePx = px
}

func (r *ShapeRenderer) HitTolerance() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tolerancePx
}

// AddElement stages an element for the next RefreshElements call.
func (r *ShapeRenderer) AddElement(e *Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, e)
}

// RefreshElements replaces the live element set with the staged one
// and rebuilds the spatial index.
func (r *ShapeRenderer) RefreshElements() {
	r.mu.Lock()
	defer r.mu.Unlock()
	tree := rtree.NewTree(25, 50)
	entries := make([]*shapeEntry, 0, len(r.pending))
	for i, e := range r.pending {
		b := internalBounds(e.Geometry(), r.proj)
		entry := &shapeEntry{
			Geom:    boundsRect(b),
			element: e,
			order:   i,
		}
		if !b.Empty() {
			tree.Insert(entry)
			entry.indexed = true
		}
		entries = append(entries, entry)
	}
	r.entries = entries
	r.tree = tree
	r.pending = nil
}

// UpdateElement reindexes a live element after its geometry changed,
// or appends it on top of the draw order if it was not live yet.
func (r *ShapeRenderer) UpdateElement(e *Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := (*shapeEntry)(nil)
	for _, cand := range r.entries {
		if cand.element == e {
			entry = cand
			break
		}
	}
	if entry == nil {
		order := 0
		if n := len(r.entries); n > 0 {
			order = r.entries[n-1].order + 1
		}
		entry = &shapeEntry{element: e, order: order}
		r.entries = append(r.entries, entry)
	} else if entry.indexed {
		r.tree.Delete(entry)
	}
	b := internalBounds(e.Geometry(), r.proj)
	entry.Geom = boundsRect(b)
	entry.indexed = !b.Empty()
	if entry.indexed {
		r.tree.Insert(entry)
	}
}

// RemoveElement drops a live element without waiting for the next
// RefreshElements call.
func (r *ShapeRenderer) RemoveElement(e *Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.entries {
		if entry.element != e {
			continue
		}
		if entry.indexed {
			r.tree.Delete(entry)
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		return
	}
}

// Elements returns the live elements in draw order.
func (r *ShapeRenderer) Elements() []*Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Element, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.element
	}
	return out
}

type shapeHit struct {
	element *Element
	dist    float64
	order   int
}

// RayIntersect returns the visible elements hit by ray, nearest
// first. Elements at equal distance (overlapping polygon interiors)
// order topmost first, which is reverse draw order.
func (r *ShapeRenderer) RayIntersect(ray Ray, view *ViewState) []*Element {
	if view == nil || view.Surface() == nil {
		return nil
	}
	worldHit, ok := view.Surface().RayIntersect(ray)
	if !ok {
		return nil
	}
	m := view.Surface().CalculateMapPos(worldHit)

	r.mu.Lock()
	defer r.mu.Unlock()
	worldTol := r.tolerancePx * view.UnitsPerPixel(worldHit)
	tol := internalTolerance(view.Surface(), m, worldHit, worldTol)
	ext := r.proj.FromInternal(m)

	var hits []shapeHit
	for _, s := range r.tree.SearchIntersect(rtree.ToRect(m, tol)) {
		entry := s.(*shapeEntry)
		if !entry.element.Visible() {
			continue
		}
		if d, ok := shapeHitDistance(entry.element.Geometry(), r.proj, ext, m, tol); ok {
			hits = append(hits, shapeHit{entry.element, d, entry.order})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].order > hits[j].order
	})
	out := make([]*Element, len(hits))
	for i, h := range hits {
		out[i] = h.element
	}
	return out
}

// A PointOverlayRenderer holds the overlay handles of the selected
// element and answers ray picking queries against them. Handles are
// staged with AddElement and become live at the next RefreshElements
// call.
type PointOverlayRenderer struct {
	mu      sync.Mutex
	proj    Projection
	pending []*OverlayPoint
	live    []*OverlayPoint
}

// NewPointOverlayRenderer creates a renderer for handles whose
// positions are in the given projection. A nil projection means
// EPSG:3857.
func NewPointOverlayRenderer(proj Projection) *PointOverlayRenderer {
	if proj == nil {
		proj = NewEPSG3857()
	}
	return &PointOverlayRenderer{proj: proj}
}

// AddElement stages a handle for the next RefreshElements call.
func (r *PointOverlayRenderer) AddElement(p *OverlayPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, p)
}

// RefreshElements replaces the live handle set with the staged one.
func (r *PointOverlayRenderer) RefreshElements() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = r.pending
	r.pending = nil
}

// Elements returns the live handles in draw order.
func (r *PointOverlayRenderer) Elements() []*OverlayPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*OverlayPoint, len(r.live))
	copy(out, r.live)
	return out
}

type overlayHit struct {
	point *OverlayPoint
	t     float64
	order int
}

// RayIntersect returns the handles hit by ray, nearest first. A
// handle is hit when the ray passes within its style's click radius;
// handles with a nil style are not drawn and cannot be hit.
func (r *PointOverlayRenderer) RayIntersect(ray Ray, view *ViewState) []*OverlayPoint {
	if view == nil || view.Surface() == nil {
		return nil
	}
	dirNorm2 := ray.Dir.Norm2()
	if dirNorm2 == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []overlayHit
	for i, p := range r.live {
		style := p.Style()
		if style == nil {
			continue
		}
		world := view.Surface().CalculatePosition(r.proj.ToInternal(p.Pos()))
		t := world.Sub(ray.Origin).Dot(ray.Dir) / dirNorm2
		if t <= 0 {
			continue
		}
		radius := style.clickRadius() * view.UnitsPerPixel(world)
		if ray.Point(t).Sub(world).Norm() <= radius {
			hits = append(hits, overlayHit{p, t, i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].t != hits[j].t {
			return hits[i].t < hits[j].t
		}
		return hits[i].order > hits[j].order
	})
	out := make([]*OverlayPoint, len(hits))
	for i, h := range hits {
		out[i] = h.point
	}
	return out
}

// internalBounds is the extent of g in internal map coordinates.
// A nil or empty geometry yields empty bounds.
func internalBounds(g geom.Geom, proj Projection) *geom.Bounds {
	b := geom.NewBounds()
	extendInternalBounds(b, g, proj)
	return b
}

func extendInternalBounds(b *geom.Bounds, g geom.Geom, proj Projection) {
	switch t := g.(type) {
	case geom.Point:
		b.Extend(geom.NewBoundsPoint(proj.ToInternal(t)))
	case geom.LineString:
		for _, p := range t {
			b.Extend(geom.NewBoundsPoint(proj.ToInternal(p)))
		}
	case geom.Polygon:
		for _, ring := range t {
			for _, p := range ring {
				b.Extend(geom.NewBoundsPoint(proj.ToInternal(p)))
			}
		}
	default:
		if children, ok := geometryChildren(g); ok {
			for _, child := range children {
				extendInternalBounds(b, child, proj)
			}
		}
	}
}

// internalTolerance converts a tolerance in world units to internal
// map units by probing the surface scale at m.
func internalTolerance(surface ProjectionSurface, m geom.Point, worldHit r3.Vector, worldTol float64) float64 {
	const delta = 1e-6
	probe := surface.CalculatePosition(geom.Point{X: m.X + delta, Y: m.Y})
	scale := probe.Sub(worldHit).Norm() / delta
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return worldTol
	}
	return worldTol / scale
}

// shapeHitDistance returns the distance in internal map units from
// the picked position to g, with 0 meaning the position is inside a
// polygon. The second return is false when every part of g is
// farther than tol. ext is the picked position in data source
// coordinates, m the same position in internal coordinates.
func shapeHitDistance(g geom.Geom, proj Projection, ext, m geom.Point, tol float64) (float64, bool) {
	switch t := g.(type) {
	case geom.Point:
		if d := pointDistance(proj.ToInternal(t), m); d <= tol {
			return d, true
		}
	case geom.LineString:
		best, found := math.Inf(1), false
		for i := 1; i < len(t); i++ {
			d := pointSegmentDistance(m, proj.ToInternal(t[i-1]), proj.ToInternal(t[i]))
			if d <= tol && d < best {
				best, found = d, true
			}
		}
		if found {
			return best, true
		}
	case geom.Polygon:
		if ext.Within(t) != geom.Outside {
			return 0, true
		}
		best, found := math.Inf(1), false
		for _, ring := range t {
			for i := 0; i < len(ring); i++ {
				next := ring[(i+1)%len(ring)]
				d := pointSegmentDistance(m, proj.ToInternal(ring[i]), proj.ToInternal(next))
				if d <= tol && d < best {
					best, found = d, true
				}
			}
		}
		if found {
			return best, true
		}
	default:
		if children, ok := geometryChildren(g); ok {
			best, found := math.Inf(1), false
			for _, child := range children {
				if d, ok := shapeHitDistance(child, proj, ext, m, tol); ok && d < best {
					best, found = d, true
				}
			}
			if found {
				return best, true
			}
		}
	}
	return 0, false
}

func pointDistance(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// pointSegmentDistance is the distance from p to the segment ab.
func pointSegmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return pointDistance(p, a)
	}
	u := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / len2
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return pointDistance(p, geom.Point{X: a.X + u*dx, Y: a.Y + u*dy})
}
