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
	"image/color"

	"github.com/ctessum/geom"
)

// A PointStyle describes how an overlay handle is drawn and hit. Size
// and ClickSize are diameters in pixels; a ClickSize of zero or less
// falls back to Size.
type PointStyle struct {
	Color     color.RGBA
	Size      float64
	ClickSize float64
}

// clickRadius returns the handle's hit radius in pixels.
func (s *PointStyle) clickRadius() float64 {
	if s.ClickSize > 0 {
		return s.ClickSize / 2
	}
	return s.Size / 2
}

// DragPointStyle identifies which overlay handle style the edit
// listener should supply.
type DragPointStyle int

const (
	// DragPointStyleNormal styles handles on real vertices.
	DragPointStyleNormal DragPointStyle = iota
	// DragPointStyleVirtual styles synthetic midpoint handles.
	DragPointStyleVirtual
	// DragPointStyleSelected styles the handle being dragged.
	DragPointStyleSelected
)

func (s DragPointStyle) String() string {
	switch s {
	case DragPointStyleNormal:
		return "normal"
	case DragPointStyleVirtual:
		return "virtual"
	case DragPointStyleSelected:
		return "selected"
	}
	return "unknown"
}

// DragMode says what a drag gesture moves: a single vertex handle or
// the whole element.
type DragMode int

const (
	DragModeVertex DragMode = iota
	DragModeElement
)

func (m DragMode) String() string {
	switch m {
	case DragModeVertex:
		return "vertex"
	case DragModeElement:
		return "element"
	}
	return "unknown"
}

// DragResult is the edit listener's disposition for one drag event.
type DragResult int

const (
	// DragResultIgnore abandons the candidate drag without consuming
	// the event.
	DragResultIgnore DragResult = iota
	// DragResultStop consumes the event but prevents the drag from
	// starting or continuing. No mutation happens.
	DragResultStop
	// DragResultModify applies the drag's point or whole-geometry
	// transform and keeps the gesture alive.
	DragResultModify
	// DragResultDelete deletes the dragged vertex or the whole
	// element and ends the gesture.
	DragResultDelete
)

func (r DragResult) String() string {
	switch r {
	case DragResultIgnore:
		return "ignore"
	case DragResultStop:
		return "stop"
	case DragResultModify:
		return "modify"
	case DragResultDelete:
		return "delete"
	}
	return "unknown"
}

// DragInfo describes one drag event delivered to the edit listener.
type DragInfo struct {
	// Element is the selected element the gesture operates on.
	Element *Element
	// Mode says whether a vertex handle or the whole element is
	// dragged.
	Mode DragMode
	// ScreenPos is the pointer position in pixels.
	ScreenPos ScreenPos
	// MapPos is the pointer position in data source coordinates.
	MapPos geom.Point
}
