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
	"fmt"
	"sync"

	"github.com/ctessum/geom"
)

// An OverlayPoint is one draggable handle drawn over the selected
// element: a real vertex or a synthetic segment midpoint. Handle
// identity is pointer identity; the layer reuses handle objects
// across overlay rebuilds so the handle being dragged stays the same
// object.
type OverlayPoint struct {
	mu      sync.Mutex
	pos     geom.Point
	virtual bool
	style   *PointStyle
}

func newOverlayPoint(pos geom.Point, virtual bool, style *PointStyle) *OverlayPoint {
	return &OverlayPoint{pos: pos, virtual: virtual, style: style}
}

// Pos returns the handle position in data source coordinates.
func (p *OverlayPoint) Pos() geom.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Virtual reports whether the handle is a synthetic midpoint.
// Dragging a virtual handle inserts a new vertex into the geometry
// instead of moving an existing one.
func (p *OverlayPoint) Virtual() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.virtual
}

// Style returns the handle's current style; nil means the handle is
// not drawn and cannot be hit.
func (p *OverlayPoint) Style() *PointStyle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.style
}

func (p *OverlayPoint) setPos(pos geom.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}

func (p *OverlayPoint) setVirtual(virtual bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.virtual = virtual
}

func (p *OverlayPoint) setStyle(style *PointStyle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.style = style
}

func (p *OverlayPoint) String() string {
	pos := p.Pos()
	kind := "vertex"
	if p.Virtual() {
		kind = "midpoint"
	}
	return fmt.Sprintf("%s handle (%g, %g)", kind, pos.X, pos.Y)
}

// syncOverlayPoints rebuilds the overlay handle list from the
// element's current geometry and pushes it to the overlay renderer.
// A nil or invisible element clears the overlay; this is the fast
// path for deselection.
func (l *EditableLayer) syncOverlayPoints(element *Element) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syncOverlayPointsLocked(element)
}

// syncOverlayPointsLocked is syncOverlayPoints for callers already
// holding l.mu.
func (l *EditableLayer) syncOverlayPointsLocked(element *Element) {
	var points overlayList
	if element != nil && element.Visible() {
		if view := l.viewStateLocked(); view != nil && view.Surface() != nil {
			index := 0
			l.buildOverlayPoints(element.Geometry(), view.Surface(), &index, &points)
		}
	}
	l.overlayPoints = points
	for _, p := range points {
		l.overlay.AddElement(p)
	}
	l.overlay.RefreshElements()
}

// buildOverlayPoints appends handles for g to out in pre-order:
// points contribute one handle; lines alternate midpoint and vertex
// handles; polygon rings alternate vertex and midpoint handles around
// each ring, skipping the stored closing duplicate but always
// covering the wrap-around segment; composite geometries concatenate
// their children. The running flat index reuses handle objects from
// the previous overlay list. Caller must hold l.mu.
func (l *EditableLayer) buildOverlayPoints(g geom.Geom, surface ProjectionSurface, index *int, out *overlayList) {
	proj := l.dataSource.Projection()

	switch t := g.(type) {
	case geom.Point:
		*out = append(*out, l.makeOverlayPoint(t, false, *index))
		*index++
	case geom.LineString:
		for i := 0; i < len(t); i++ {
			if i > 0 {
				mid := surfaceMidpoint(surface, proj, t[i-1], t[i])
				*out = append(*out, l.makeOverlayPoint(mid, true, *index))
				*index++
			}
			*out = append(*out, l.makeOverlayPoint(t[i], false, *index))
			*index++
		}
	case geom.Polygon:
		for _, ring := range t {
			closed := ringClosed(ring)
			n := len(ring)
			if closed {
				n--
			}
			for i := 0; i < n; i++ {
				*out = append(*out, l.makeOverlayPoint(ring[i], false, *index))
				*index++
				next := ring[0]
				if i+1 < len(ring) {
					next = ring[i+1]
				}
				mid := surfaceMidpoint(surface, proj, ring[i], next)
				*out = append(*out, l.makeOverlayPoint(mid, true, *index))
				*index++
			}
		}
	default:
		if children, ok := geometryChildren(g); ok {
			for _, child := range children {
				l.buildOverlayPoints(child, surface, index, out)
			}
		}
	}
}

// makeOverlayPoint updates and returns the handle at the given flat
// index of the previous overlay list, or allocates a new handle when
// the index is out of range. The handle being dragged gets the
// selected style. Caller must hold l.mu.
func (l *EditableLayer) makeOverlayPoint(pos geom.Point, virtual bool, index int) *OverlayPoint {
	if index >= 0 && index < l.overlayPoints.len() {
		p := l.overlayPoints[index]
		p.setPos(pos)
		p.setVirtual(virtual)
		switch {
		case p == l.dragPoint:
			p.setStyle(l.styleSelected)
		case virtual:
			p.setStyle(l.styleVirtual)
		default:
			p.setStyle(l.styleNormal)
		}
		return p
	}
	style := l.styleNormal
	if virtual {
		style = l.styleVirtual
	}
	return newOverlayPoint(pos, virtual, style)
}

// surfaceMidpoint returns the point halfway between a and b along the
// projection surface, in data source coordinates. On a globe this is
// the great-circle midpoint, not the coordinate average.
func surfaceMidpoint(surface ProjectionSurface, proj Projection, a, b geom.Point) geom.Point {
	wa := surface.CalculatePosition(proj.ToInternal(a))
	wb := surface.CalculatePosition(proj.ToInternal(b))
	wm := surface.CalculateTranslation(wa, wb, 0.5).Apply(wa)
	return proj.FromInternal(surface.CalculateMapPos(wm))
}
