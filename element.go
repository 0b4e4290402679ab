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
	"sync"

	"github.com/ctessum/geom"
)

// TransientID is the ID of an element that has not been added to a
// data source. Transient IDs never compare equal between elements.
const TransientID int64 = -1

// An Element is one editable vector shape: a geometry plus identity
// and visibility. Elements are created transient and receive a
// persistent ID when added to a DataSource. Changing the geometry or
// visibility of an owned element notifies the data source's
// listeners.
type Element struct {
	mu       sync.Mutex
	id       int64
	geometry geom.Geom
	visible  bool
	owner    *DataSource
}

// NewElement creates a visible, transient element holding g.
func NewElement(g geom.Geom) *Element {
	return &Element{id: TransientID, geometry: g, visible: true}
}

// ID returns the element's identifier, or TransientID if the element
// has not been added to a data source.
func (e *Element) ID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Geometry returns the element's current geometry.
func (e *Element) Geometry() geom.Geom {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.geometry
}

// SetGeometry replaces the element's geometry and notifies the owning
// data source, if any.
func (e *Element) SetGeometry(g geom.Geom) {
	e.mu.Lock()
	e.geometry = g
	owner := e.owner
	e.mu.Unlock()
	if owner != nil {
		owner.elementChanged(e)
	}
}

// Visible returns whether the element should be drawn and editable.
func (e *Element) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// SetVisible changes the element's visibility and notifies the owning
// data source, if any. Hiding the selected element clears its overlay
// handles.
func (e *Element) SetVisible(visible bool) {
	e.mu.Lock()
	e.visible = visible
	owner := e.owner
	e.mu.Unlock()
	if owner != nil {
		owner.elementChanged(e)
	}
}

// attach binds the element to a data source and assigns its ID. It
// reports false if the element already belongs to a data source.
func (e *Element) attach(owner *DataSource, id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.owner != nil {
		return false
	}
	e.owner = owner
	e.id = id
	return true
}

// detach unbinds the element from its data source. The assigned ID is
// kept so existing references can still be matched by identity.
func (e *Element) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = nil
}

// SameElement reports whether a and b refer to the same element:
// either the same pointer, or both carrying the same non-transient ID.
// A transient element is only the same as itself.
func SameElement(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.ID() == TransientID {
		return false
	}
	return a.ID() == b.ID()
}
