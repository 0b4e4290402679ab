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
	"image/color"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/golang/geo/r3"
)

const testTolerance = 1.e-9

// identityProjection keeps data source coordinates equal to internal
// coordinates so fixtures can be written in plain world units.
type identityProjection struct{}

func (identityProjection) ToInternal(p geom.Point) geom.Point   { return p }
func (identityProjection) FromInternal(p geom.Point) geom.Point { return p }
func (identityProjection) Name() string                         { return "identity" }

// testViewState looks straight down at the origin of a planar surface
// from height 10 with a 90 degree vertical field of view over an
// 800x600 viewport. World position (x, y, 0) lands on pixel
// (400+30x, 300-30y), so one world unit is 30 pixels near the center.
func testViewState() *ViewState {
	return NewViewState(NewPlanarSurface(),
		r3.Vector{Z: 10}, r3.Vector{}, r3.Vector{Y: 1}, 800, 600, 90)
}

// screenAt returns the pixel position over the given map position.
func screenAt(t *testing.T, view *ViewState, pos geom.Point) ScreenPos {
	t.Helper()
	sp := view.WorldToScreen(view.Surface().CalculatePosition(pos))
	if math.IsNaN(sp.X) || math.IsNaN(sp.Y) {
		t.Fatalf("map position %+v does not project onto the screen", pos)
	}
	return sp
}

// touchAt feeds one touch event aimed at the given map position and
// returns whether the layer consumed it.
func touchAt(t *testing.T, l *EditableLayer, view *MapView, action TouchAction, pos geom.Point) bool {
	t.Helper()
	return l.OnTouchEvent(action, screenAt(t, view.ViewState(), pos))
}

// scriptListener is an EditListener whose verdicts are fields the test
// sets. It records every callback in order and, like an application
// listener would, commits proposed geometry back to the element and
// removes deleted elements from the data source.
type scriptListener struct {
	ds *DataSource

	selectOK       bool
	styleNormal    *PointStyle
	styleVirtual   *PointStyle
	styleSelected  *PointStyle
	startResult    DragResult
	moveResult     DragResult
	endResult      DragResult
	commit         bool
	removeOnDelete bool

	log       []string
	drags     []DragInfo
	modifies  []geom.Geom
	deletes   []*Element
	deselects []*Element
}

func newScriptListener(ds *DataSource) *scriptListener {
	return &scriptListener{
		ds:             ds,
		selectOK:       true,
		styleNormal:    &PointStyle{Color: color.RGBA{R: 255, A: 255}, Size: 12, ClickSize: 16},
		styleVirtual:   &PointStyle{Color: color.RGBA{G: 255, A: 255}, Size: 10, ClickSize: 16},
		styleSelected:  &PointStyle{Color: color.RGBA{B: 255, A: 255}, Size: 14, ClickSize: 16},
		startResult:    DragResultModify,
		moveResult:     DragResultModify,
		endResult:      DragResultModify,
		commit:         true,
		removeOnDelete: true,
	}
}

func (s *scriptListener) OnElementSelect(e *Element) bool {
	s.log = append(s.log, fmt.Sprintf("select %d", e.ID()))
	return s.selectOK
}

func (s *scriptListener) OnElementDeselected(e *Element) {
	s.log = append(s.log, fmt.Sprintf("deselect %d", e.ID()))
	s.deselects = append(s.deselects, e)
}

func (s *scriptListener) OnDragPointStyle(e *Element, kind DragPointStyle) *PointStyle {
	switch kind {
	case DragPointStyleVirtual:
		return s.styleVirtual
	case DragPointStyleSelected:
		return s.styleSelected
	}
	return s.styleNormal
}

func (s *scriptListener) OnDragStart(info DragInfo) DragResult {
	s.log = append(s.log, "drag start "+info.Mode.String())
	s.drags = append(s.drags, info)
	return s.startResult
}

func (s *scriptListener) OnDragMove(info DragInfo) DragResult {
	s.log = append(s.log, "drag move "+info.Mode.String())
	s.drags = append(s.drags, info)
	return s.moveResult
}

func (s *scriptListener) OnDragEnd(info DragInfo) DragResult {
	s.log = append(s.log, "drag end "+info.Mode.String())
	s.drags = append(s.drags, info)
	return s.endResult
}

func (s *scriptListener) OnElementModify(e *Element, g geom.Geom) {
	s.log = append(s.log, fmt.Sprintf("modify %d", e.ID()))
	s.modifies = append(s.modifies, g)
	if s.commit {
		e.SetGeometry(g)
	}
}

func (s *scriptListener) OnElementDelete(e *Element) {
	s.log = append(s.log, fmt.Sprintf("delete %d", e.ID()))
	s.deletes = append(s.deletes, e)
	if s.removeOnDelete && s.ds != nil {
		s.ds.Remove(e)
	}
}

// newTestLayer builds a layer over elements with the given geometries,
// attached to a MapView showing testViewState, with a scriptListener
// installed. Nothing is selected yet.
func newTestLayer(t *testing.T, geoms ...geom.Geom) (*EditableLayer, *scriptListener, *MapView, []*Element) {
	t.Helper()
	ds := NewDataSource(identityProjection{})
	elements := make([]*Element, len(geoms))
	for i, g := range geoms {
		elements[i] = NewElement(g)
		if err := ds.Add(elements[i]); err != nil {
			t.Fatal(err)
		}
	}
	view := NewMapView()
	view.SetViewState(testViewState())
	l := NewEditableLayer(ds)
	lis := newScriptListener(ds)
	l.SetEditListener(lis)
	l.Attach(view)
	return l, lis, view, elements
}

// selectElement selects e and fails the test when the selection does
// not take effect.
func selectElement(t *testing.T, l *EditableLayer, e *Element) {
	t.Helper()
	l.SetSelectedElement(e)
	if l.SelectedElement() != e {
		t.Fatal("element selection did not take effect.")
	}
}

// handleState is the observable state of one overlay handle.
type handleState struct {
	Pos     geom.Point
	Virtual bool
}

func handleStates(points []*OverlayPoint) []handleState {
	out := make([]handleState, len(points))
	for i, p := range points {
		out[i] = handleState{Pos: p.Pos(), Virtual: p.Virtual()}
	}
	return out
}

// geomClose reports whether two geometries have the same structure
// and vertices within tol of each other. Touch-driven positions pick
// up tiny unprojection error, so touch tests cannot compare exactly.
func geomClose(a, b geom.Geom, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch t := a.(type) {
	case geom.Point:
		u, ok := b.(geom.Point)
		return ok && math.Abs(t.X-u.X) <= tol && math.Abs(t.Y-u.Y) <= tol
	case geom.LineString:
		u, ok := b.(geom.LineString)
		if !ok || len(t) != len(u) {
			return false
		}
		for i := range t {
			if !geomClose(t[i], u[i], tol) {
				return false
			}
		}
		return true
	case geom.Polygon:
		u, ok := b.(geom.Polygon)
		if !ok || len(t) != len(u) {
			return false
		}
		for i := range t {
			if len(t[i]) != len(u[i]) {
				return false
			}
			for j := range t[i] {
				if !geomClose(t[i][j], u[i][j], tol) {
					return false
				}
			}
		}
		return true
	case geom.GeometryCollection:
		u, ok := b.(geom.GeometryCollection)
		if !ok || len(t) != len(u) {
			return false
		}
		for i := range t {
			if !geomClose(t[i], u[i], tol) {
				return false
			}
		}
		return true
	}
	return false
}

func vectorClose(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}
