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
	"github.com/ctessum/geom"
)

// An EditListener mediates every edit. The layer never writes to the
// data source itself: geometry changes and deletions are offered to
// the listener, which owns the commit. Listener methods are invoked
// outside the layer's internal lock, so they may call back into the
// layer or the data source.
type EditListener interface {
	// OnElementSelect is called before an element becomes selected.
	// Returning false vetoes the selection.
	OnElementSelect(*Element) bool

	// OnElementDeselected is called after an element has lost its
	// selection.
	OnElementDeselected(*Element)

	// OnDragPointStyle supplies the style for overlay handles of the
	// given kind. Returning nil leaves those handles undrawn and
	// unclickable.
	OnDragPointStyle(*Element, DragPointStyle) *PointStyle

	// OnDragStart decides the disposition of a new drag candidate.
	OnDragStart(DragInfo) DragResult

	// OnDragMove decides the disposition of a drag in progress.
	OnDragMove(DragInfo) DragResult

	// OnDragEnd decides the final disposition when the pointer is
	// released.
	OnDragEnd(DragInfo) DragResult

	// OnElementModify is called with the element's new geometry after
	// an accepted edit. Committing the geometry to the element (and
	// thereby to the data source) is the listener's responsibility.
	OnElementModify(*Element, geom.Geom)

	// OnElementDelete is called when an edit deletes the whole
	// element. Removing the element from its data source is the
	// listener's responsibility.
	OnElementDelete(*Element)
}
