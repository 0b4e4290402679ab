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
	"fmt"
	"sync"
)

// A DataSourceListener receives change notifications from a
// DataSource. Notifications are delivered outside the data source
// lock, so listener implementations may call back into the data
// source.
type DataSourceListener interface {
	OnElementAdded(*Element)
	OnElementChanged(*Element)
	OnElementRemoved(*Element)
	OnElementsAdded([]*Element)
	OnElementsChanged()
	OnElementsRemoved()
}

// A DataSource is an ordered collection of elements sharing one
// projection. Adding an element assigns it a persistent ID and binds
// it to the data source so geometry and visibility changes fan out to
// registered listeners.
type DataSource struct {
	mu         sync.Mutex
	projection Projection
	elements   []*Element
	nextID     int64
	listeners  []DataSourceListener
}

// NewDataSource creates an empty data source. A nil projection
// defaults to Web-Mercator.
func NewDataSource(p Projection) *DataSource {
	if p == nil {
		p = NewEPSG3857()
	}
	return &DataSource{projection: p, nextID: 1}
}

// Projection returns the projection of the data source's coordinates.
func (d *DataSource) Projection() Projection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.projection
}

// Add appends e to the data source, assigning its ID. It is an error
// to add an element that already belongs to a data source.
func (d *DataSource) Add(e *Element) error {
	if e == nil {
		return fmt.Errorf("vectoredit: cannot add nil element")
	}
	d.mu.Lock()
	if !e.attach(d, d.nextID) {
		d.mu.Unlock()
		return fmt.Errorf("vectoredit: element already belongs to a data source")
	}
	d.nextID++
	d.elements = append(d.elements, e)
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementAdded(e)
	}
	return nil
}

// AddAll appends all the given elements, assigning IDs in order. If
// any element already belongs to a data source, nothing is added.
func (d *DataSource) AddAll(elements []*Element) error {
	d.mu.Lock()
	attached := make([]*Element, 0, len(elements))
	for _, e := range elements {
		if e == nil || !e.attach(d, d.nextID) {
			for _, a := range attached {
				a.detach()
			}
			d.mu.Unlock()
			return fmt.Errorf("vectoredit: element already belongs to a data source")
		}
		d.nextID++
		attached = append(attached, e)
	}
	d.elements = append(d.elements, attached...)
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementsAdded(attached)
	}
	return nil
}

// Remove removes e from the data source, reporting whether it was
// present. The element keeps its assigned ID.
func (d *DataSource) Remove(e *Element) bool {
	d.mu.Lock()
	i := -1
	for j, el := range d.elements {
		if el == e {
			i = j
			break
		}
	}
	if i < 0 {
		d.mu.Unlock()
		return false
	}
	copy(d.elements[i:], d.elements[i+1:])
	d.elements[len(d.elements)-1] = nil
	d.elements = d.elements[:len(d.elements)-1]
	e.detach()
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementRemoved(e)
	}
	return true
}

// Clear removes every element.
func (d *DataSource) Clear() {
	d.mu.Lock()
	for _, e := range d.elements {
		e.detach()
	}
	d.elements = nil
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementsRemoved()
	}
}

// All returns the elements in insertion order.
func (d *DataSource) All() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Element, len(d.elements))
	copy(out, d.elements)
	return out
}

// ByID returns the element with the given ID, or nil.
func (d *DataSource) ByID(id int64) *Element {
	if id == TransientID {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.elements {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

// NotifyElementsChanged tells listeners that an out-of-band change
// affected many elements, prompting a full refresh.
func (d *DataSource) NotifyElementsChanged() {
	d.mu.Lock()
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementsChanged()
	}
}

// RegisterListener subscribes l to change notifications.
func (d *DataSource) RegisterListener(l DataSourceListener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// UnregisterListener removes a previously registered listener.
func (d *DataSource) UnregisterListener(l DataSourceListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, reg := range d.listeners {
		if reg == l {
			copy(d.listeners[i:], d.listeners[i+1:])
			d.listeners[len(d.listeners)-1] = nil
			d.listeners = d.listeners[:len(d.listeners)-1]
			return
		}
	}
}

// elementChanged fans out a change notification for an owned element.
func (d *DataSource) elementChanged(e *Element) {
	d.mu.Lock()
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnElementChanged(e)
	}
}

// snapshotListeners returns a copy of the listener list. The caller
// must hold d.mu.
func (d *DataSource) snapshotListeners() []DataSourceListener {
	out := make([]DataSourceListener, len(d.listeners))
	copy(out, d.listeners)
	return out
}
