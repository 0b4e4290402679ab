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
	"github.com/sirupsen/logrus"
)

// TouchAction identifies a phase of a pointer gesture.
type TouchAction int

const (
	TouchActionDown TouchAction = iota
	TouchActionMove
	TouchActionUp
)

func (a TouchAction) String() string {
	switch a {
	case TouchActionDown:
		return "down"
	case TouchActionMove:
		return "move"
	case TouchActionUp:
		return "up"
	}
	return "unknown"
}

// touchGesture is the layer state snapshot a touch event works
// against. Drag point and geometry are captured once per event so a
// listener rearming or clearing the drag mid-callback cannot change
// what the event applies to.
type touchGesture struct {
	selected    *Element
	gen         uint64
	listener    EditListener
	mode        DragMode
	point       *OverlayPoint
	geometry    geom.Geom
	geometryPos geom.Point
	started     bool
}

// OnTouchEvent feeds one pointer event to the layer and reports
// whether the layer consumed it. Unconsumed events should be passed
// on to map panning. Events are ignored while no element is selected
// or the layer is detached, and when the screen position does not
// project onto the map surface.
//
// A Down over a handle of the selected element proposes a vertex
// drag to the listener; a Down over the element body proposes a
// whole-element drag. Move and Up drive a started drag, with every
// phase's DragResult deciding whether the gesture continues, stops,
// applies, or deletes.
func (l *EditableLayer) OnTouchEvent(action TouchAction, pos ScreenPos) bool {
	l.mu.Lock()
	view := l.viewStateLocked()
	g := touchGesture{
		selected:    l.selected,
		gen:         l.selectionGen,
		listener:    l.listener,
		mode:        l.dragMode,
		point:       l.dragPoint,
		geometry:    l.dragGeometry,
		geometryPos: l.dragGeometryPos,
		started:     l.dragStarted,
	}
	l.mu.Unlock()

	if view == nil || view.Surface() == nil || g.selected == nil {
		return false
	}
	ray, ok := view.CameraRay(pos)
	if !ok {
		return false
	}
	worldPos, ok := view.Surface().RayIntersect(ray)
	if !ok || vectorIsNaN(worldPos) {
		return false
	}
	mapPos := l.dataSource.Projection().FromInternal(view.Surface().CalculateMapPos(worldPos))
	if math.IsNaN(mapPos.X) || math.IsNaN(mapPos.Y) {
		return false
	}

	switch action {
	case TouchActionDown:
		return l.touchDown(view, ray, pos, mapPos, g)
	case TouchActionMove:
		return l.touchMove(view, pos, mapPos, g)
	case TouchActionUp:
		return l.touchUp(view, pos, mapPos, g)
	}
	return false
}

// touchDown arms a drag. Handles are tested before the element body;
// an Ignore verdict on the handle candidate falls through to the
// body test, and an Ignore on a body candidate moves on to the next
// overlapping hit.
func (l *EditableLayer) touchDown(view *ViewState, ray Ray, screenPos ScreenPos, mapPos geom.Point, g touchGesture) bool {
	if hits := l.overlay.RayIntersect(ray, view); len(hits) > 0 {
		result := DragResultIgnore
		if g.listener != nil {
			result = g.listener.OnDragStart(DragInfo{Element: g.selected, Mode: DragModeVertex, ScreenPos: screenPos, MapPos: mapPos})
		}
		point := hits[0]
		l.mu.Lock()
		aborted := l.selectionGen != g.gen
		if !aborted {
			l.dragMode = DragModeVertex
			l.dragPoint = point
			switch result {
			case DragResultIgnore, DragResultStop:
				l.dragPoint = nil
			case DragResultModify:
				l.dragStarted = true
			}
		}
		l.mu.Unlock()
		if aborted {
			return false
		}
		switch result {
		case DragResultStop:
			return true
		case DragResultModify:
			l.Log.WithFields(logrus.Fields{"mode": DragModeVertex.String()}).Debug("vectoredit drag started")
			l.updateElementPoint(g.selected, g.gen, point, mapPos)
			return true
		case DragResultDelete:
			l.removeElementPoint(g.selected, g.gen, point)
			return true
		}
	}

	for _, e := range l.shapes.RayIntersect(ray, view) {
		if !SameElement(e, g.selected) {
			continue
		}
		result := DragResultIgnore
		if g.listener != nil {
			result = g.listener.OnDragStart(DragInfo{Element: g.selected, Mode: DragModeElement, ScreenPos: screenPos, MapPos: mapPos})
		}
		geometry := g.selected.Geometry()
		l.mu.Lock()
		aborted := l.selectionGen != g.gen
		if !aborted {
			l.dragMode = DragModeElement
			l.dragGeometry = geometry
			l.dragGeometryPos = mapPos
			switch result {
			case DragResultIgnore, DragResultStop:
				l.dragGeometry = nil
			case DragResultModify:
				l.dragStarted = true
			}
		}
		l.mu.Unlock()
		if aborted {
			return false
		}
		switch result {
		case DragResultIgnore:
			continue
		case DragResultStop:
			return true
		case DragResultModify:
			l.Log.WithFields(logrus.Fields{"mode": DragModeElement.String()}).Debug("vectoredit drag started")
			l.updateElementGeometry(g.selected, g.gen, geometry, view, mapPos, mapPos)
			return true
		case DragResultDelete:
			l.removeElement(g.selected, g.gen)
			return true
		}
	}
	return false
}

// touchMove advances a started drag. Ignore leaves the drag armed
// without consuming the event; Stop ends the gesture without
// applying it.
func (l *EditableLayer) touchMove(view *ViewState, screenPos ScreenPos, mapPos geom.Point, g touchGesture) bool {
	if !g.started {
		return false
	}
	result := DragResultIgnore
	if g.listener != nil {
		result = g.listener.OnDragMove(DragInfo{Element: g.selected, Mode: g.mode, ScreenPos: screenPos, MapPos: mapPos})
	}
	switch result {
	case DragResultStop:
		l.clearDragState(g.gen)
		l.Refresh()
		return true
	case DragResultModify:
		if g.mode == DragModeVertex {
			l.updateElementPoint(g.selected, g.gen, g.point, mapPos)
		} else {
			l.updateElementGeometry(g.selected, g.gen, g.geometry, view, g.geometryPos, mapPos)
		}
		return true
	case DragResultDelete:
		l.clearDragState(g.gen)
		if g.mode == DragModeVertex {
			l.removeElementPoint(g.selected, g.gen, g.point)
		} else {
			l.removeElement(g.selected, g.gen)
		}
		return true
	}
	return false
}

// touchUp finishes a started drag. The drag tuple is cleared before
// the verdict is applied, so the applied values are the ones
// captured when the event came in. An Ignore verdict discards the
// gesture and reports the event unconsumed.
func (l *EditableLayer) touchUp(view *ViewState, screenPos ScreenPos, mapPos geom.Point, g touchGesture) bool {
	if !g.started {
		return false
	}
	result := DragResultIgnore
	if g.listener != nil {
		result = g.listener.OnDragEnd(DragInfo{Element: g.selected, Mode: g.mode, ScreenPos: screenPos, MapPos: mapPos})
	}
	l.clearDragState(g.gen)
	switch result {
	case DragResultIgnore:
		l.Refresh()
		return false
	case DragResultStop:
		l.Refresh()
		return true
	case DragResultModify:
		if g.mode == DragModeVertex {
			l.updateElementPoint(g.selected, g.gen, g.point, mapPos)
		} else {
			l.updateElementGeometry(g.selected, g.gen, g.geometry, view, g.geometryPos, mapPos)
		}
		l.Refresh()
		return true
	case DragResultDelete:
		if g.mode == DragModeVertex {
			l.removeElementPoint(g.selected, g.gen, g.point)
		} else {
			l.removeElement(g.selected, g.gen)
		}
		l.Refresh()
		return true
	}
	return false
}
