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

// Package vectoredit implements interactive editing of vector map
// features. Selecting an element puts draggable handles over its
// vertices and segment midpoints; touch gestures then move vertices,
// insert new ones at midpoints, delete vertices, or drag whole
// shapes. Every change is offered to an application-provided
// EditListener, which decides whether the gesture proceeds and owns
// writing modified geometry back to the data source.
package vectoredit

import (
	"sync"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "1.2.0"

// An EditableLayer mediates between a data source of vector
// elements, the renderers that draw and hit test them, and an
// EditListener holding the application's edit policy.
//
// All exported methods are safe for concurrent use. Listener
// callbacks run outside the layer's internal lock, so a listener may
// call back into the layer or the data source; results of a callback
// are committed only if the selection did not change underneath it.
type EditableLayer struct {
	// Log receives drag and selection transitions at debug level.
	// Replace it before attaching the layer.
	Log logrus.FieldLogger

	mu sync.Mutex

	dataSource  *DataSource
	overlay     *PointOverlayRenderer
	shapes      *ShapeRenderer
	mapRenderer MapRenderer
	dsListener  *layerDataSourceListener

	listener EditListener

	selected     *Element
	selectionGen uint64

	overlayPoints overlayList

	dragMode        DragMode
	dragPoint       *OverlayPoint
	dragGeometry    geom.Geom
	dragGeometryPos geom.Point
	dragStarted     bool

	styleNormal   *PointStyle
	styleVirtual  *PointStyle
	styleSelected *PointStyle
}

// NewEditableLayer creates an editing layer over the elements of ds.
// The layer is inert until attached to a map renderer. A nil ds
// creates an empty EPSG:3857 data source.
func NewEditableLayer(ds *DataSource) *EditableLayer {
	if ds == nil {
		ds = NewDataSource(nil)
	}
	l := &EditableLayer{
		Log:        logrus.StandardLogger(),
		dataSource: ds,
		overlay:    NewPointOverlayRenderer(ds.Projection()),
		shapes:     NewShapeRenderer(ds.Projection()),
	}
	l.dsListener = &layerDataSourceListener{layer: l}
	return l
}

// DataSource returns the data source the layer edits.
func (l *EditableLayer) DataSource() *DataSource { return l.dataSource }

// Shapes returns the renderer holding element bodies.
func (l *EditableLayer) Shapes() *ShapeRenderer { return l.shapes }

// Overlay returns the renderer holding the selection's handles.
func (l *EditableLayer) Overlay() *PointOverlayRenderer { return l.overlay }

// Attach connects the layer to a map renderer and starts tracking
// data source changes. Elements already in the data source become
// pickable immediately.
func (l *EditableLayer) Attach(renderer MapRenderer) {
	l.mu.Lock()
	l.mapRenderer = renderer
	l.mu.Unlock()
	l.dataSource.RegisterListener(l.dsListener)
	l.Refresh()
}

// Detach disconnects the layer from its map renderer, clearing the
// selection. Elements stay in the data source. While detached, touch
// events are not consumed.
func (l *EditableLayer) Detach() {
	l.dataSource.UnregisterListener(l.dsListener)
	l.SetSelectedElement(nil)
	l.mu.Lock()
	l.mapRenderer = nil
	l.mu.Unlock()
}

// SetEditListener installs the edit policy. Without a listener,
// elements cannot be selected and every gesture is ignored.
func (l *EditableLayer) SetEditListener(listener EditListener) {
	l.mu.Lock()
	l.listener = listener
	l.mu.Unlock()
}

// EditListener returns the installed edit policy, or nil.
func (l *EditableLayer) EditListener() EditListener {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listener
}

// SelectedElement returns the selected element, or nil.
func (l *EditableLayer) SelectedElement() *Element {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// OverlayPoints returns the selection's handles in flat index order.
func (l *EditableLayer) OverlayPoints() []*OverlayPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.overlayPoints.array()
}

// SetSelectedElement changes the selection. Selecting the element
// already selected is a no-op; anything else first clears the
// previous selection and drag state. The new selection takes effect
// only if the listener approves it through OnElementSelect, which
// also supplies the three handle styles. A nil element deselects.
func (l *EditableLayer) SetSelectedElement(element *Element) {
	l.mu.Lock()
	old := l.selected
	if element == old {
		l.mu.Unlock()
		return
	}
	l.selected = nil
	l.overlayPoints = nil
	l.dragPoint = nil
	l.dragGeometry = nil
	l.dragStarted = false
	l.styleNormal = nil
	l.styleVirtual = nil
	l.styleSelected = nil
	l.selectionGen++
	gen := l.selectionGen
	listener := l.listener
	l.mu.Unlock()

	if listener != nil {
		if old != nil {
			listener.OnElementDeselected(old)
			l.Log.WithFields(logrus.Fields{"id": old.ID()}).Debug("vectoredit element deselected")
		}
		if element != nil && listener.OnElementSelect(element) {
			styleNormal := listener.OnDragPointStyle(element, DragPointStyleNormal)
			styleVirtual := listener.OnDragPointStyle(element, DragPointStyleVirtual)
			styleSelected := listener.OnDragPointStyle(element, DragPointStyleSelected)

			l.mu.Lock()
			if l.selectionGen == gen {
				l.selected = element
				l.styleNormal = styleNormal
				l.styleVirtual = styleVirtual
				l.styleSelected = styleSelected
			}
			l.mu.Unlock()
			l.Log.WithFields(logrus.Fields{"id": element.ID()}).Debug("vectoredit element selected")
		}
	}

	l.Refresh()
}

// Refresh rebuilds the body renderer from the data source, with the
// selected element pinned first in draw order, and resyncs the
// overlay.
func (l *EditableLayer) Refresh() {
	l.mu.Lock()
	selected := l.selected
	l.mu.Unlock()

	if selected != nil {
		l.shapes.AddElement(selected)
	}
	for _, e := range l.dataSource.All() {
		if !SameElement(e, selected) {
			l.shapes.AddElement(e)
		}
	}
	l.shapes.RefreshElements()

	l.mu.Lock()
	l.syncOverlayPointsLocked(l.selected)
	l.mu.Unlock()
	l.redraw()
}

// refreshElement resyncs a single element after a data source
// change, and the overlay when it is the selected element.
func (l *EditableLayer) refreshElement(element *Element, removed bool) {
	if removed {
		l.shapes.RemoveElement(element)
	} else {
		l.shapes.UpdateElement(element)
	}
	l.mu.Lock()
	if SameElement(element, l.selected) {
		l.syncOverlayPointsLocked(l.selected)
	}
	l.mu.Unlock()
	l.redraw()
}

func (l *EditableLayer) redraw() {
	l.mu.Lock()
	renderer := l.mapRenderer
	l.mu.Unlock()
	if renderer != nil {
		renderer.RequestRedraw()
	}
}

// viewStateLocked returns the attached renderer's view state. Caller
// must hold l.mu.
func (l *EditableLayer) viewStateLocked() *ViewState {
	if l.mapRenderer == nil {
		return nil
	}
	return l.mapRenderer.ViewState()
}

// clearDragState drops the drag tuple unless the selection changed
// since the gesture started.
func (l *EditableLayer) clearDragState(gen uint64) {
	l.mu.Lock()
	if l.selectionGen == gen {
		l.dragPoint = nil
		l.dragGeometry = nil
		l.dragStarted = false
	}
	l.mu.Unlock()
}

// updateElementPoint moves the vertex under dragPoint to mapPos,
// going through the handle's flat index so midpoint handles insert a
// new vertex. The result goes to the listener as a proposed
// geometry; the layer never writes geometry back to the element. A
// geometry that mutated away entirely is reported through
// OnElementDelete instead.
func (l *EditableLayer) updateElementPoint(element *Element, gen uint64, dragPoint *OverlayPoint, mapPos geom.Point) {
	if element == nil {
		return
	}
	l.mu.Lock()
	if l.selectionGen != gen {
		l.mu.Unlock()
		return
	}
	index, ok := l.overlayPoints.index(dragPoint)
	if !ok {
		l.mu.Unlock()
		return
	}
	offset := 0
	geometry := l.updateGeometryPoint(element.Geometry(), &offset, index, mapPos)
	listener := l.listener
	l.mu.Unlock()

	if geometry != nil {
		if listener != nil {
			listener.OnElementModify(element, geometry)
		}
	} else {
		if listener != nil {
			listener.OnElementDelete(element)
		}
		element = nil
	}

	l.mu.Lock()
	if l.selectionGen == gen {
		l.syncOverlayPointsLocked(element)
	}
	l.mu.Unlock()
	l.redraw()
}

// removeElementPoint deletes the vertex under dragPoint. Midpoint
// handles are ignored. Geometries reduced below their minimum vertex
// count are reported through OnElementDelete.
func (l *EditableLayer) removeElementPoint(element *Element, gen uint64, dragPoint *OverlayPoint) {
	if element == nil {
		return
	}
	l.mu.Lock()
	if l.selectionGen != gen {
		l.mu.Unlock()
		return
	}
	index, ok := l.overlayPoints.index(dragPoint)
	if !ok {
		l.mu.Unlock()
		return
	}
	offset := 0
	geometry := l.removeGeometryPoint(element.Geometry(), &offset, index)
	listener := l.listener
	l.mu.Unlock()

	if geometry != nil {
		if listener != nil {
			listener.OnElementModify(element, geometry)
		}
	} else {
		if listener != nil {
			listener.OnElementDelete(element)
		}
		element = nil
	}

	l.mu.Lock()
	if l.selectionGen == gen {
		l.syncOverlayPointsLocked(element)
	}
	l.mu.Unlock()
	l.redraw()
}

// updateElementGeometry proposes moving the whole element by the
// surface translation carrying from to to, applied to the drag-start
// geometry. Equal positions propose the geometry unchanged; the
// listener still receives OnElementModify.
func (l *EditableLayer) updateElementGeometry(element *Element, gen uint64, geometry geom.Geom, view *ViewState, from, to geom.Point) {
	if element == nil || geometry == nil {
		return
	}
	if from != to && view != nil {
		if surface := view.Surface(); surface != nil {
			geometry = translateGeometry(geometry, surface, l.dataSource.Projection(), from, to)
		}
	}

	l.mu.Lock()
	valid := l.selectionGen == gen
	listener := l.listener
	l.mu.Unlock()
	if !valid {
		return
	}

	if listener != nil {
		listener.OnElementModify(element, geometry)
	}

	l.mu.Lock()
	if l.selectionGen == gen {
		l.syncOverlayPointsLocked(element)
	}
	l.mu.Unlock()
	l.redraw()
}

// removeElement reports whole-element deletion to the listener and
// clears the overlay. The listener owns removing the element from
// the data source; the selection clears through the data source
// listener when it does.
func (l *EditableLayer) removeElement(element *Element, gen uint64) {
	l.mu.Lock()
	listener := l.listener
	l.mu.Unlock()

	if listener != nil {
		listener.OnElementDelete(element)
	}
	if element != nil {
		l.Log.WithFields(logrus.Fields{"id": element.ID()}).Debug("vectoredit element delete requested")
	}

	l.mu.Lock()
	if l.selectionGen == gen {
		l.syncOverlayPointsLocked(nil)
	}
	l.mu.Unlock()
	l.redraw()
}

// layerDataSourceListener forwards data source changes into the
// layer. Removing the selected element deselects it first.
type layerDataSourceListener struct {
	layer *EditableLayer
}

func (dl *layerDataSourceListener) OnElementAdded(e *Element) {
	dl.layer.refreshElement(e, false)
}

func (dl *layerDataSourceListener) OnElementChanged(e *Element) {
	dl.layer.refreshElement(e, false)
}

func (dl *layerDataSourceListener) OnElementRemoved(e *Element) {
	if SameElement(e, dl.layer.SelectedElement()) {
		dl.layer.SetSelectedElement(nil)
	}
	dl.layer.refreshElement(e, true)
}

func (dl *layerDataSourceListener) OnElementsAdded(elements []*Element) {
	dl.layer.Refresh()
}

func (dl *layerDataSourceListener) OnElementsChanged() {
	dl.layer.Refresh()
}

func (dl *layerDataSourceListener) OnElementsRemoved() {
	dl.layer.SetSelectedElement(nil)
	dl.layer.Refresh()
}
